package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/basset-hound/automation/internal/forms"
	"github.com/basset-hound/automation/pkg/bassethound"
)

var formsCmd = &cobra.Command{
	Use:   "forms [url]",
	Short: "Analyze a form and fill it from sample data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL := "https://httpbin.org/forms/post"
		if len(args) > 0 {
			pageURL = args[0]
		}
		submit, _ := cmd.Flags().GetBool("submit")
		return session(cmd.Context(), func(ctx context.Context, client *bassethound.Client) error {
			return runForms(ctx, client, pageURL, submit)
		})
	},
}

func init() {
	formsCmd.Flags().Bool("submit", false, "submit the form after filling it")
	rootCmd.AddCommand(formsCmd)
}

func runForms(ctx context.Context, client *bassethound.Client, pageURL string, submit bool) error {
	banner("Form Automation")

	if _, err := client.Navigate(ctx, pageURL); err != nil {
		return err
	}
	if err := pause(ctx, 2*time.Second); err != nil {
		return err
	}

	automator := forms.New(client)

	analysis, err := automator.Analyze(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\nForm Analysis:")
	fmt.Printf("  Action: %s\n", analysis.Action)
	fmt.Printf("  Method: %s\n", analysis.Method)
	fmt.Printf("  Fields: %d\n", analysis.FieldCount)
	fmt.Printf("  Required: %d\n", len(analysis.Required))

	formData := map[string]string{
		"custname":  "John Doe",
		"custtel":   "555-1234",
		"custemail": "john@example.com",
		"size":      "medium",
		"topping":   "bacon",
		"delivery":  "11:30",
		"comments":  "Extra napkins please",
	}

	fillOpts := []forms.FillOption{forms.WithSettle(time.Second)}
	if submit {
		fillOpts = append(fillOpts, forms.WithSubmit())
	}
	report, err := automator.FillSmart(ctx, formData, fillOpts...)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\nFill Result: %s\n", out)

	shot, err := client.Screenshot(ctx)
	if err != nil {
		return err
	}
	shotPath := outPath("form_filled.png")
	if err := shot.WriteFile(shotPath); err != nil {
		return err
	}
	fmt.Printf("\nScreenshot saved: %s\n", shotPath)
	return nil
}
