package fakeext

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/basset-hound/automation/pkg/bassethound"
)

// Page is the in-memory tab the fake extension controls. Tests configure
// it up front and inspect it after driving the client.
type Page struct {
	mu sync.Mutex

	url     string
	title   string
	titles  map[string]string // per-URL titles applied on navigation
	forms   []bassethound.Form
	values  map[string]string // filled values by selector
	clicked []string

	content    string
	contentFor map[string]string

	present  map[string]bool   // selectors that exist beyond form fields
	reveals  map[string]string // click selector -> selector that appears
	captcha  string
	cookies  []bassethound.Cookie
	scripts  []scriptStub
	requests []bassethound.NetworkRequest
	har      json.RawMessage

	monitoring bool
	submitted  bool
}

type scriptStub struct {
	substr string
	value  interface{}
}

func newPage() *Page {
	return &Page{
		titles:     make(map[string]string),
		values:     make(map[string]string),
		contentFor: make(map[string]string),
		present:    map[string]bool{"body": true},
		reveals:    make(map[string]string),
	}
}

// SetTitle registers the title shown after navigating to pageURL.
func (p *Page) SetTitle(pageURL, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles[pageURL] = title
}

// SetForms replaces the forms visible on the page.
func (p *Page) SetForms(forms ...bassethound.Form) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forms = forms
}

// SetContent sets the content returned for a whole-page get_content.
func (p *Page) SetContent(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = content
}

// SetContentFor sets the content returned for a specific selector.
func (p *Page) SetContentFor(selector, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contentFor[selector] = content
	p.present[selector] = true
}

// AddSelector marks a selector as present on the page.
func (p *Page) AddSelector(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.present[selector] = true
}

// RevealOnClick makes target appear once trigger is clicked.
func (p *Page) RevealOnClick(trigger, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reveals[trigger] = target
}

// SetCaptcha marks the page as carrying a CAPTCHA of the given type.
// An empty type clears it.
func (p *Page) SetCaptcha(captchaType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captcha = captchaType
}

// SetCookies replaces the cookie jar.
func (p *Page) SetCookies(cookies ...bassethound.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = cookies
}

// StubScript registers a canned execute_script value for any script whose
// text contains substr. Stubs are matched in registration order.
func (p *Page) StubScript(substr string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, scriptStub{substr: substr, value: value})
}

// SetRequests replaces the captured network requests.
func (p *Page) SetRequests(requests ...bassethound.NetworkRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = requests
}

// SetHAR sets the archive returned by export_network_har.
func (p *Page) SetHAR(har json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.har = har
}

// CurrentURL returns the page the tab last navigated to.
func (p *Page) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Value returns the value filled into selector, if any.
func (p *Page) Value(selector string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[selector]
	return v, ok
}

// Clicked returns the selectors clicked so far, in order.
func (p *Page) Clicked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.clicked))
	copy(out, p.clicked)
	return out
}

// Submitted reports whether a fill_form carried submit=true.
func (p *Page) Submitted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitted
}

func (p *Page) navigate(target string) (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = target
	if t, ok := p.titles[target]; ok {
		p.title = t
	} else if p.title == "" {
		if u, err := url.Parse(target); err == nil && u.Host != "" {
			p.title = u.Host
		} else {
			p.title = target
		}
	}
	if p.monitoring {
		p.requests = append(p.requests, bassethound.NetworkRequest{
			URL:       target,
			Method:    "GET",
			Type:      "document",
			Status:    200,
			Duration:  40,
			Size:      2048,
			Timestamp: float64(time.Now().UnixMilli()),
		})
	}
	return p.url, p.title
}

func (p *Page) fill(fields map[string]string, submit bool) ([]string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var filled, failed []string
	for sel, val := range fields {
		if !p.hasLocked(sel) {
			failed = append(failed, sel)
			continue
		}
		p.values[sel] = val
		for fi := range p.forms {
			for gi := range p.forms[fi].Fields {
				if p.forms[fi].Fields[gi].Selector == sel {
					p.forms[fi].Fields[gi].Value = val
				}
			}
		}
		filled = append(filled, sel)
	}
	if submit {
		p.submitted = true
	}
	return filled, failed
}

func (p *Page) click(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicked = append(p.clicked, selector)
	if target, ok := p.reveals[selector]; ok {
		p.present[target] = true
	}
	return true
}

func (p *Page) has(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasLocked(selector)
}

func (p *Page) hasLocked(selector string) bool {
	if p.present[selector] {
		return true
	}
	for _, f := range p.forms {
		for _, field := range f.Fields {
			if field.Selector == selector {
				return true
			}
		}
	}
	return false
}

func (p *Page) contentOf(selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector == "" {
		return p.content, nil
	}
	if c, ok := p.contentFor[selector]; ok {
		return c, nil
	}
	if !p.hasLocked(selector) {
		return "", fmt.Errorf("no element matches %s", selector)
	}
	return p.content, nil
}

func (p *Page) state() bassethound.PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	forms := make([]bassethound.Form, len(p.forms))
	copy(forms, p.forms)
	for i := range forms {
		fields := make([]bassethound.FormField, len(p.forms[i].Fields))
		copy(fields, p.forms[i].Fields)
		forms[i].Fields = fields
	}
	return bassethound.PageState{URL: p.url, Title: p.title, Forms: forms}
}

func (p *Page) scriptValue(script string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, stub := range p.scripts {
		if strings.Contains(script, stub.substr) {
			return stub.value
		}
	}
	return map[string]interface{}{}
}

func (p *Page) startMonitoring() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitoring = true
	p.requests = nil
}

func (p *Page) stopMonitoring() []bassethound.NetworkRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitoring = false
	out := make([]bassethound.NetworkRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *Page) networkLogs() []bassethound.NetworkRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bassethound.NetworkRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *Page) harExport() json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.har
}

func (p *Page) captchaReport() bassethound.CaptchaReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bassethound.CaptchaReport{HasCaptcha: p.captcha != "", Type: p.captcha}
}

func (p *Page) cookieList() []bassethound.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bassethound.Cookie, len(p.cookies))
	copy(out, p.cookies)
	return out
}
