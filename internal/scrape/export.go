package scrape

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/samber/oops"
)

type exportEnvelope struct {
	ScrapedAt    time.Time     `json:"scraped_at"`
	TotalRecords int           `json:"total_records"`
	Successful   int           `json:"successful"`
	Failed       int           `json:"failed"`
	Data         []Record      `json:"data"`
	Errors       []ScrapeError `json:"errors"`
}

// ExportJSON writes everything scraped so far to path, wrapped in an
// envelope with totals and the error list. Without data it is a no-op.
func (s *Scraper) ExportJSON(path string) error {
	records := s.Records()
	if len(records) == 0 {
		log.Warn("no data to export")
		return nil
	}

	successful := 0
	for _, r := range records {
		if r.Success {
			successful++
		}
	}
	env := exportEnvelope{
		ScrapedAt:    time.Now(),
		TotalRecords: len(records),
		Successful:   successful,
		Failed:       len(records) - successful,
		Data:         records,
		Errors:       s.Errors(),
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return oops.Wrapf(err, "encode export")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Wrapf(err, "write %s", path)
	}
	log.WithField("records", len(records)).WithField("path", path).Info("exported json")
	return nil
}

// ExportCSV writes everything scraped so far to path. The header is the
// sorted union of keys across records; fields a record lacks are left
// blank. Without data it is a no-op.
func (s *Scraper) ExportCSV(path string) error {
	records := s.Records()
	if len(records) == 0 {
		log.Warn("no data to export")
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(records))
	keySet := make(map[string]struct{})
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return oops.Wrapf(err, "encode record")
		}
		var row map[string]interface{}
		if err := json.Unmarshal(data, &row); err != nil {
			return oops.Wrapf(err, "decode record")
		}
		for k := range row {
			keySet[k] = struct{}{}
		}
		rows = append(rows, row)
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f, err := os.Create(path)
	if err != nil {
		return oops.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(keys); err != nil {
		return oops.Wrapf(err, "write header")
	}
	line := make([]string, len(keys))
	for _, row := range rows {
		for i, k := range keys {
			if v, ok := row[k]; ok {
				line[i] = fmt.Sprint(v)
			} else {
				line[i] = ""
			}
		}
		if err := w.Write(line); err != nil {
			return oops.Wrapf(err, "write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return oops.Wrapf(err, "flush %s", path)
	}
	log.WithField("records", len(records)).WithField("path", path).Info("exported csv")
	return nil
}
