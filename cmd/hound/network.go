package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basset-hound/automation/internal/netwatch"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var networkCmd = &cobra.Command{
	Use:   "network <url>",
	Short: "Monitor a page's network traffic and analyze it",
	Long: `Navigate to the page with network monitoring enabled, observe its
traffic for the given duration, then print the analysis report and
save the results as JSON plus an HTTP Archive of the capture.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("duration")
		return session(cmd.Context(), func(ctx context.Context, client *bassethound.Client) error {
			return runNetwork(ctx, client, args[0], duration)
		})
	},
}

func init() {
	networkCmd.Flags().Duration("duration", 10*time.Second, "how long to observe traffic after the page loads")
	rootCmd.AddCommand(networkCmd)
}

func runNetwork(ctx context.Context, client *bassethound.Client, pageURL string, duration time.Duration) error {
	analyzer := netwatch.New(client, netwatch.WithArtifactDir(viper.GetString("out")))

	results, err := analyzer.Run(ctx, pageURL, duration)
	if err != nil {
		return err
	}

	results.Render(os.Stdout)

	jsonPath := outPath(fmt.Sprintf("network_analysis_%d.json", time.Now().Unix()))
	if err := results.SaveJSON(jsonPath); err != nil {
		return err
	}
	fmt.Printf("\nFull report saved to: %s\n", jsonPath)
	return nil
}
