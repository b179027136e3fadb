package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/internal/transcript"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var log = logger.Get()

var rootCmd = &cobra.Command{
	Use:   "hound",
	Short: "Drive a browser through the Basset Hound extension",
	Long: `hound connects to the Basset Hound browser extension over WebSocket
and drives it through automation workflows: a full protocol demo, form
filling, scraping, SEO audits and network analysis.

Every flag can also be set through a HOUND_* environment variable,
for example HOUND_WS_URL or HOUND_CALL_TIMEOUT.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(viper.GetString("log-level"))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("ws-url", "ws://localhost:8765/browser", "WebSocket URL of the extension")
	pf.Duration("call-timeout", 30*time.Second, "default per-command deadline")
	pf.String("out", os.TempDir(), "directory for reports, exports and screenshots")
	pf.String("transcript", "", "record the wire session to this file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	viper.SetEnvPrefix("HOUND")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pf); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}
}

// session dials the extension, hands the connected client to run, and
// tears the connection down afterwards.
func session(ctx context.Context, run func(ctx context.Context, client *bassethound.Client) error) error {
	opts := []bassethound.Option{
		bassethound.WithCallTimeout(viper.GetDuration("call-timeout")),
	}

	if path := viper.GetString("transcript"); path != "" {
		rec, err := transcript.NewRecorder(path)
		if err != nil {
			return err
		}
		defer rec.Close()
		opts = append(opts, bassethound.WithRecorder(rec))
	}

	client, err := bassethound.Dial(ctx, viper.GetString("ws-url"), opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	return run(ctx, client)
}

// outPath resolves name inside the output directory, creating the
// directory on first use.
func outPath(name string) string {
	dir := viper.GetString("out")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.WithError(err).WithField("dir", dir).Warn("failed to create output directory")
	}
	return filepath.Join(dir, name)
}

// pause waits for d or until ctx is canceled.
func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// clip truncates s to limit runes, marking the cut with an ellipsis.
func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func banner(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Println(title)
	fmt.Println(rule)
}

func section(title string) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", 60))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
