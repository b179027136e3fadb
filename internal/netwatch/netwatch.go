// Package netwatch runs network monitoring sessions against the browser
// and analyzes the captured traffic: request breakdowns, API endpoint
// discovery, timing statistics and HAR export.
package netwatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/pkg/bassethound"
	"github.com/basset-hound/automation/pkg/har"
)

var log = logger.Get()

// Analyzer drives a monitoring session over the browser client.
type Analyzer struct {
	client    *bassethound.Client
	artifacts string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithArtifactDir makes Run write the HAR archive into dir. Without it no
// archive file is produced.
func WithArtifactDir(dir string) Option {
	return func(a *Analyzer) { a.artifacts = dir }
}

// New returns an Analyzer on top of client.
func New(client *bassethound.Client, opts ...Option) *Analyzer {
	a := &Analyzer{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the monitor, navigates to pageURL, observes traffic for the
// given duration, then stops the monitor and analyzes everything captured.
// A non-positive observe duration skips the observation wait.
func (a *Analyzer) Run(ctx context.Context, pageURL string, observe time.Duration) (*Results, error) {
	log.WithFields(logrus.Fields{"url": pageURL, "observe": observe}).Info("starting network analysis")

	if err := a.client.StartNetworkMonitoring(ctx); err != nil {
		return nil, oops.Wrapf(err, "start network monitoring")
	}
	if _, err := a.client.Navigate(ctx, pageURL); err != nil {
		return nil, oops.Wrapf(err, "navigate to %s", pageURL)
	}
	if observe > 0 {
		timer := time.NewTimer(observe)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	capture, err := a.client.StopNetworkMonitoring(ctx)
	if err != nil {
		return nil, oops.Wrapf(err, "stop network monitoring")
	}
	log.WithField("requests", len(capture.Requests)).Info("network monitoring stopped")

	results := &Results{
		URL:                pageURL,
		AnalyzedAt:         time.Now(),
		MonitoringDuration: observe.Seconds(),
		Capture:            capture,
		RequestAnalysis:    Analyze(capture.Requests),
		APIEndpoints:       APIEndpoints(capture.Requests),
		Performance:        Performance(capture.Requests),
	}

	if a.artifacts != "" {
		path := filepath.Join(a.artifacts, fmt.Sprintf("network_%d.har", time.Now().Unix()))
		if err := a.exportHAR(ctx, capture, path); err != nil {
			log.WithError(err).Warn("har export failed")
		} else {
			results.HARFile = path
			log.WithField("path", path).Info("har exported")
		}
	}
	return results, nil
}

var jsonNull = []byte("null")

// exportHAR writes the extension's archive when it provides one, otherwise
// builds an archive locally from the capture.
func (a *Analyzer) exportHAR(ctx context.Context, capture *bassethound.NetworkCapture, path string) error {
	raw, err := a.client.ExportHAR(ctx)
	if err != nil {
		log.WithError(err).Debug("extension har export unavailable, building locally")
	} else if len(raw) > 0 && !bytes.Equal(raw, jsonNull) {
		if _, perr := har.Parse(raw); perr == nil {
			var buf bytes.Buffer
			if ierr := json.Indent(&buf, raw, "", "  "); ierr != nil {
				return oops.Wrapf(ierr, "indent har payload")
			}
			return os.WriteFile(path, buf.Bytes(), 0o644)
		}
		log.Debug("extension har payload is not a valid archive, building locally")
	}
	return har.Build(capture.Requests).Write(path)
}
