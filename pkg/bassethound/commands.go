package bassethound

import (
	"context"
	"encoding/json"
	"time"
)

const (
	defaultNavigateTimeout = 30 * time.Second
	defaultWaitTimeout     = 10 * time.Second

	// Cushion added to the client-side deadline so the extension's own
	// timeout fires first and produces a proper error reply.
	timeoutCushion = 5 * time.Second
)

// NavigateOption adjusts a navigate command.
type NavigateOption func(*navigateParams)

// WithWaitFor makes the navigation wait until selector is present before
// replying.
func WithWaitFor(selector string) NavigateOption {
	return func(p *navigateParams) {
		p.WaitFor = selector
	}
}

// WithNavigateTimeout overrides the default 30s navigation timeout.
func WithNavigateTimeout(d time.Duration) NavigateOption {
	return func(p *navigateParams) {
		p.Timeout = d.Milliseconds()
	}
}

// Navigate loads url in the controlled tab.
func (c *Client) Navigate(ctx context.Context, url string, opts ...NavigateOption) (*NavigateResult, error) {
	p := navigateParams{URL: url, Timeout: defaultNavigateTimeout.Milliseconds()}
	for _, opt := range opts {
		opt(&p)
	}

	ctx, cancel := c.cushioned(ctx, time.Duration(p.Timeout)*time.Millisecond)
	defer cancel()

	var result NavigateResult
	if err := c.callInto(ctx, CmdNavigate, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FillOption adjusts a fill_form command.
type FillOption func(*fillFormParams)

// WithSubmit submits the form after filling it.
func WithSubmit() FillOption {
	return func(p *fillFormParams) {
		p.Submit = true
	}
}

// FillForm fills form inputs. Keys of fields are CSS selectors, values are
// the text or choice to enter.
func (c *Client) FillForm(ctx context.Context, fields map[string]string, opts ...FillOption) (*FillFormResult, error) {
	p := fillFormParams{Fields: fields}
	for _, opt := range opts {
		opt(&p)
	}
	var result FillFormResult
	if err := c.callInto(ctx, CmdFillForm, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClickOption adjusts a click command.
type ClickOption func(*clickParams)

// WithWaitAfter makes the extension pause for d after the click before
// replying, giving the page time to react.
func WithWaitAfter(d time.Duration) ClickOption {
	return func(p *clickParams) {
		p.WaitAfter = d.Milliseconds()
	}
}

// Click dispatches a click on the first element matching selector.
func (c *Client) Click(ctx context.Context, selector string, opts ...ClickOption) error {
	p := clickParams{Selector: selector}
	for _, opt := range opts {
		opt(&p)
	}
	return c.callInto(ctx, CmdClick, p, nil)
}

// Content returns the content of the first element matching selector,
// defaulting to the whole body.
func (c *Client) Content(ctx context.Context, selector string) (*Content, error) {
	if selector == "" {
		selector = "body"
	}
	var result Content
	if err := c.callInto(ctx, CmdGetContent, contentParams{Selector: selector}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ScreenshotOption adjusts a screenshot command.
type ScreenshotOption func(*screenshotParams)

// WithFormat sets the image format ("png" or "jpeg").
func WithFormat(format string) ScreenshotOption {
	return func(p *screenshotParams) {
		p.Format = format
	}
}

// WithQuality sets the image quality (1-100, jpeg only).
func WithQuality(quality int) ScreenshotOption {
	return func(p *screenshotParams) {
		p.Quality = quality
	}
}

// Screenshot captures the visible tab. Defaults to png at quality 90.
func (c *Client) Screenshot(ctx context.Context, opts ...ScreenshotOption) (*Screenshot, error) {
	p := screenshotParams{Format: "png", Quality: 90}
	for _, opt := range opts {
		opt(&p)
	}
	var result Screenshot
	if err := c.callInto(ctx, CmdScreenshot, p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WaitForElement waits until an element matching selector exists, up to
// timeout (default 10s). The result reports whether it appeared; a selector
// that never shows up is not an error.
func (c *Client) WaitForElement(ctx context.Context, selector string, timeout time.Duration) (*WaitResult, error) {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	ctx, cancel := c.cushioned(ctx, timeout)
	defer cancel()

	var result WaitResult
	if err := c.callInto(ctx, CmdWaitForElement, waitParams{Selector: selector, Timeout: timeout.Milliseconds()}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PageState snapshots the current tab: URL, title and discovered forms.
func (c *Client) PageState(ctx context.Context) (*PageState, error) {
	var result PageState
	if err := c.callInto(ctx, CmdGetPageState, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExecuteScript evaluates script in the page and returns its JSON-encoded
// value.
func (c *Client) ExecuteScript(ctx context.Context, script string) (json.RawMessage, error) {
	return c.Call(ctx, CmdExecuteScript, scriptParams{Script: script})
}

// ExecuteScriptInto evaluates script in the page and decodes its value
// into out.
func (c *Client) ExecuteScriptInto(ctx context.Context, script string, out interface{}) error {
	return c.callInto(ctx, CmdExecuteScript, scriptParams{Script: script}, out)
}

// Cookies returns cookies for url, or for the current page when url is
// empty.
func (c *Client) Cookies(ctx context.Context, url string) ([]Cookie, error) {
	var result cookiesResult
	if err := c.callInto(ctx, CmdGetCookies, cookiesParams{URL: url}, &result); err != nil {
		return nil, err
	}
	return result.Cookies, nil
}

// DetectForms asks the extension to analyze forms on the current page.
func (c *Client) DetectForms(ctx context.Context) ([]Form, error) {
	var result formsResult
	if err := c.callInto(ctx, CmdDetectForms, nil, &result); err != nil {
		return nil, err
	}
	return result.Forms, nil
}

// DetectCaptcha reports whether the current page carries a CAPTCHA.
func (c *Client) DetectCaptcha(ctx context.Context) (*CaptchaReport, error) {
	var result CaptchaReport
	if err := c.callInto(ctx, CmdDetectCaptcha, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartNetworkMonitoring begins capturing request metadata in the
// extension.
func (c *Client) StartNetworkMonitoring(ctx context.Context) error {
	return c.callInto(ctx, CmdStartNetworkMonitoring, nil, nil)
}

// StopNetworkMonitoring stops the capture and returns everything recorded.
func (c *Client) StopNetworkMonitoring(ctx context.Context) (*NetworkCapture, error) {
	var result NetworkCapture
	if err := c.callInto(ctx, CmdStopNetworkMonitoring, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NetworkLogs returns the requests captured so far without stopping the
// monitor.
func (c *Client) NetworkLogs(ctx context.Context) (*NetworkCapture, error) {
	var result NetworkCapture
	if err := c.callInto(ctx, CmdGetNetworkLogs, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportHAR asks the extension for an HTTP Archive of the captured
// traffic. The payload under "har" is returned as-is; it is empty when the
// extension has nothing to export.
func (c *Client) ExportHAR(ctx context.Context) (json.RawMessage, error) {
	var result harResult
	if err := c.callInto(ctx, CmdExportNetworkHAR, nil, &result); err != nil {
		return nil, err
	}
	return result.HAR, nil
}

// cushioned derives a deadline of d plus a cushion when ctx has none, so
// the extension-side timeout reports first.
func (c *Client) cushioned(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d+timeoutCushion)
}
