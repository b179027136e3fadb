package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basset-hound/automation/internal/seo"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var seoCmd = &cobra.Command{
	Use:   "seo <url>",
	Short: "Run a full SEO audit against a page",
	Long: `Audit the page's meta tags, heading structure, images, links,
performance and structured data, print the scored report and save
the full results as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settle, _ := cmd.Flags().GetDuration("settle")
		return session(cmd.Context(), func(ctx context.Context, client *bassethound.Client) error {
			return runSEO(ctx, client, args[0], settle)
		})
	},
}

func init() {
	seoCmd.Flags().Duration("settle", 2*time.Second, "pause after navigation before probing")
	rootCmd.AddCommand(seoCmd)
}

func runSEO(ctx context.Context, client *bassethound.Client, pageURL string, settle time.Duration) error {
	auditor := seo.New(client,
		seo.WithSettle(settle),
		seo.WithScreenshotDir(viper.GetString("out")),
	)

	report, err := auditor.RunFull(ctx, pageURL)
	if err != nil {
		return err
	}

	report.Render(os.Stdout)

	jsonPath := outPath(fmt.Sprintf("seo_audit_%d.json", time.Now().Unix()))
	if err := report.SaveJSON(jsonPath); err != nil {
		return err
	}
	fmt.Printf("\nFull report saved to: %s\n", jsonPath)
	return nil
}
