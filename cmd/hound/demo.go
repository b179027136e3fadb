package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/basset-hound/automation/pkg/bassethound"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through every protocol command against a live page",
	RunE: func(cmd *cobra.Command, args []string) error {
		return session(cmd.Context(), runDemo)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

const pageCountScript = `({
	links: document.querySelectorAll('a').length,
	buttons: document.querySelectorAll('button, input[type="submit"]').length
})`

func runDemo(ctx context.Context, client *bassethound.Client) error {
	banner("Basset Hound Client - Feature Demonstration")

	section("1. Navigation Test")
	nav, err := client.Navigate(ctx, "https://example.com", bassethound.WithWaitFor("h1"))
	if err != nil {
		return err
	}
	fmt.Printf("Navigated to: %s\n", nav.URL)

	if err := pause(ctx, 2*time.Second); err != nil {
		return err
	}

	section("2. Page State Extraction")
	state, err := client.PageState(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Title: %s\n", state.Title)
	fmt.Printf("URL: %s\n", state.URL)
	fmt.Printf("Forms found: %d\n", len(state.Forms))

	var counts struct {
		Links   int `json:"links"`
		Buttons int `json:"buttons"`
	}
	if err := client.ExecuteScriptInto(ctx, pageCountScript, &counts); err != nil {
		return err
	}
	fmt.Printf("Links found: %d\n", counts.Links)
	fmt.Printf("Buttons found: %d\n", counts.Buttons)

	section("3. Content Extraction")
	content, err := client.Content(ctx, "h1")
	if err != nil {
		return err
	}
	fmt.Printf("H1 text: %s\n", clip(content.Content, 100))

	section("4. Screenshot Capture")
	shot, err := client.Screenshot(ctx)
	if err != nil {
		return err
	}
	shotPath := outPath("example-screenshot.png")
	if err := shot.WriteFile(shotPath); err != nil {
		return err
	}
	fmt.Printf("Screenshot saved: %s\n", shotPath)

	section("5. JavaScript Execution")
	var linkCount int
	if err := client.ExecuteScriptInto(ctx, "document.querySelectorAll('a').length", &linkCount); err != nil {
		return err
	}
	fmt.Printf("Links on page: %d\n", linkCount)

	section("6. Cookie Retrieval")
	cookies, err := client.Cookies(ctx, "")
	if err != nil {
		return err
	}
	fmt.Printf("Cookies found: %d\n", len(cookies))
	for i, cookie := range cookies {
		if i == 3 {
			break
		}
		fmt.Printf("  - %s: %s\n", cookie.Name, clip(cookie.Value, 30))
	}

	section("7. Form Detection")
	forms, err := client.DetectForms(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Forms detected: %d\n", len(forms))

	section("8. CAPTCHA Detection")
	captcha, err := client.DetectCaptcha(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("CAPTCHAs found: %v\n", captcha.HasCaptcha)

	fmt.Println()
	banner("All tests completed successfully!")
	return nil
}
