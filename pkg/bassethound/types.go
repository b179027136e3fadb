package bassethound

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Command type strings understood by the extension.
const (
	CmdNavigate               = "navigate"
	CmdFillForm               = "fill_form"
	CmdClick                  = "click"
	CmdGetContent             = "get_content"
	CmdScreenshot             = "screenshot"
	CmdWaitForElement         = "wait_for_element"
	CmdGetPageState           = "get_page_state"
	CmdExecuteScript          = "execute_script"
	CmdGetCookies             = "get_cookies"
	CmdDetectForms            = "detect_forms"
	CmdDetectCaptcha          = "detect_captcha"
	CmdStartNetworkMonitoring = "start_network_monitoring"
	CmdStopNetworkMonitoring  = "stop_network_monitoring"
	CmdGetNetworkLogs         = "get_network_logs"
	CmdExportNetworkHAR       = "export_network_har"
)

// EventConnected is the unsolicited event the extension sends once it is
// ready to accept commands.
const EventConnected = "connected"

// Command is an outbound request frame.
type Command struct {
	CommandID string      `json:"command_id"`
	Type      string      `json:"type"`
	Params    interface{} `json:"params"`
}

// Response is an inbound reply frame, correlated to a Command by CommandID.
type Response struct {
	CommandID string          `json:"command_id"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// inboundFrame covers both reply frames and server-initiated event frames.
// A frame with a command_id is a reply; otherwise type identifies the event.
type inboundFrame struct {
	CommandID string          `json:"command_id"`
	Type      string          `json:"type"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
}

// Wire parameter shapes. Field names match what the extension expects;
// durations are transmitted in milliseconds.

type navigateParams struct {
	URL     string `json:"url"`
	WaitFor string `json:"wait_for,omitempty"`
	Timeout int64  `json:"timeout"`
}

type fillFormParams struct {
	Fields map[string]string `json:"fields"`
	Submit bool              `json:"submit"`
}

type clickParams struct {
	Selector  string `json:"selector"`
	WaitAfter int64  `json:"wait_after"`
}

type contentParams struct {
	Selector string `json:"selector"`
}

type screenshotParams struct {
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

type waitParams struct {
	Selector string `json:"selector"`
	Timeout  int64  `json:"timeout"`
}

type scriptParams struct {
	Script string `json:"script"`
}

type cookiesParams struct {
	URL string `json:"url,omitempty"`
}

// NavigateResult reports where a navigation landed.
type NavigateResult struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// FillFormResult reports which selectors were filled.
type FillFormResult struct {
	Filled    []string `json:"filled,omitempty"`
	Failed    []string `json:"failed,omitempty"`
	Submitted bool     `json:"submitted,omitempty"`
}

// Content is the page or element content returned by get_content.
type Content struct {
	Content string `json:"content"`
	Text    string `json:"text,omitempty"`
}

// Screenshot is a captured page image. DataURL holds the raw
// "data:image/png;base64,..." payload from the extension.
type Screenshot struct {
	DataURL string `json:"screenshot"`
	Format  string `json:"format,omitempty"`
}

// Decode strips the data URL prefix and returns the raw image bytes.
func (s *Screenshot) Decode() ([]byte, error) {
	idx := strings.IndexByte(s.DataURL, ',')
	if idx < 0 {
		return nil, fmt.Errorf("screenshot payload is not a data URL")
	}
	data, err := base64.StdEncoding.DecodeString(s.DataURL[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return data, nil
}

// WriteFile decodes the screenshot and writes the image to path.
func (s *Screenshot) WriteFile(path string) error {
	data, err := s.Decode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WaitResult reports whether a selector appeared before the wait timeout.
type WaitResult struct {
	Found    bool   `json:"found"`
	Selector string `json:"selector,omitempty"`
}

// PageState is a snapshot of the current tab.
type PageState struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Forms []Form `json:"forms,omitempty"`
}

// Form describes one form on the page.
type Form struct {
	Name   string      `json:"name,omitempty"`
	ID     string      `json:"id,omitempty"`
	Action string      `json:"action,omitempty"`
	Method string      `json:"method,omitempty"`
	Fields []FormField `json:"fields,omitempty"`
}

// FormField describes one input inside a form.
type FormField struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Selector    string `json:"selector,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Value       string `json:"value,omitempty"`
}

// Cookie mirrors the browser cookie record.
type Cookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain,omitempty"`
	Path           string  `json:"path,omitempty"`
	Secure         bool    `json:"secure,omitempty"`
	HTTPOnly       bool    `json:"httpOnly,omitempty"`
	Session        bool    `json:"session,omitempty"`
	ExpirationDate float64 `json:"expirationDate,omitempty"`
}

type cookiesResult struct {
	Cookies []Cookie `json:"cookies"`
}

type formsResult struct {
	Forms []Form `json:"forms"`
}

// CaptchaReport is the outcome of detect_captcha.
type CaptchaReport struct {
	HasCaptcha bool   `json:"hasCaptcha"`
	Type       string `json:"type,omitempty"`
}

// NetworkRequest is one captured request from the network monitor.
// Duration is in milliseconds, Size in bytes, Timestamp in epoch milliseconds.
type NetworkRequest struct {
	URL          string  `json:"url"`
	Method       string  `json:"method,omitempty"`
	Type         string  `json:"type,omitempty"`
	Status       int     `json:"statusCode,omitempty"`
	StatusText   string  `json:"statusText,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Size         int64   `json:"size,omitempty"`
	ResponseType string  `json:"responseType,omitempty"`
	Timestamp    float64 `json:"timestamp,omitempty"`
}

// NetworkCapture is the monitor's request list.
type NetworkCapture struct {
	Requests []NetworkRequest `json:"requests"`
}

type harResult struct {
	HAR json.RawMessage `json:"har"`
}
