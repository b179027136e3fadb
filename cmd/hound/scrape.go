package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/basset-hound/automation/internal/scrape"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Scrape article content from one or more pages",
	Long: `Scrape title, content, metadata and link/image counts from each page,
then export everything as JSON and CSV into the output directory.

With --next-selector the first URL is treated as the start of a
paginated listing and followed up to --max-pages pages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetDuration("delay")
		settle, _ := cmd.Flags().GetDuration("settle")
		shotDir, _ := cmd.Flags().GetString("screenshot-dir")
		nextSel, _ := cmd.Flags().GetString("next-selector")
		maxPages, _ := cmd.Flags().GetInt("max-pages")

		opts := []scrape.Option{
			scrape.WithRateLimit(delay),
			scrape.WithSettle(settle),
		}
		if shotDir != "" {
			opts = append(opts, scrape.WithScreenshotDir(shotDir))
		}

		return session(cmd.Context(), func(ctx context.Context, client *bassethound.Client) error {
			return runScrape(ctx, client, args, nextSel, maxPages, opts)
		})
	},
}

func init() {
	scrapeCmd.Flags().Duration("delay", 2*time.Second, "minimum interval between pages")
	scrapeCmd.Flags().Duration("settle", 2*time.Second, "pause after each navigation")
	scrapeCmd.Flags().String("screenshot-dir", "", "save a screenshot of every page into this directory")
	scrapeCmd.Flags().String("next-selector", "", "CSS selector of the next-page link (enables pagination)")
	scrapeCmd.Flags().Int("max-pages", 10, "page limit when following pagination")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(ctx context.Context, client *bassethound.Client, urls []string, nextSel string, maxPages int, opts []scrape.Option) error {
	banner("Web Scraping")

	scraper := scrape.New(client, opts...)

	if nextSel != "" {
		records, err := scraper.Paginate(ctx, urls[0], nextSel, maxPages)
		if err != nil {
			return err
		}
		fmt.Printf("\nScraped %d pages following %q\n", len(records), nextSel)
	} else {
		records, err := scraper.Run(ctx, urls)
		if err != nil {
			return err
		}
		fmt.Printf("\nScraped %d pages\n", len(records))
	}

	if errs := scraper.Errors(); len(errs) > 0 {
		fmt.Printf("Failures: %d\n", len(errs))
		for _, e := range errs {
			fmt.Printf("  - %s: %s\n", e.URL, e.Error)
		}
	}

	if records := scraper.Records(); len(records) == 1 {
		out, err := json.MarshalIndent(records[0], "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("\nResult: %s\n", out)
	}

	jsonPath := outPath("scraped_data.json")
	if err := scraper.ExportJSON(jsonPath); err != nil {
		return err
	}
	csvPath := outPath("scraped_data.csv")
	if err := scraper.ExportCSV(csvPath); err != nil {
		return err
	}
	fmt.Printf("\nExported: %s\n", jsonPath)
	fmt.Printf("Exported: %s\n", csvPath)
	return nil
}
