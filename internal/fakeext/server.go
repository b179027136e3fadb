// Package fakeext is an in-process stand-in for the Basset Hound browser
// extension, used by tests. It serves the extension's WebSocket protocol
// against an in-memory page model and supports per-command failure and
// delay injection.
package fakeext

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/basset-hound/automation/pkg/bassethound"
)

// Command is an inbound request frame with its params left raw for the
// handler to decode.
type Command struct {
	CommandID string          `json:"command_id"`
	Type      string          `json:"type"`
	Params    json.RawMessage `json:"params"`
}

type response struct {
	CommandID string      `json:"command_id"`
	Success   bool        `json:"success"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// HandlerFunc computes the result for one command against the page model.
// Returning an error produces a success=false reply carrying the message.
type HandlerFunc func(page *Page, params json.RawMessage) (interface{}, error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the fake extension endpoint. Commands run concurrently, so a
// delayed command does not block later ones; replies can arrive out of
// order exactly as they can from the real extension.
type Server struct {
	httpSrv *httptest.Server
	page    *Page

	mu            sync.Mutex
	handlers      map[string]HandlerFunc
	delays        map[string]time.Duration
	failures      map[string]string
	suppressHello bool
	conns         map[*websocket.Conn]struct{}
}

// New starts a fake extension with default handlers for every protocol
// command. Callers must Close it.
func New() *Server {
	s := &Server{
		page:     newPage(),
		handlers: make(map[string]HandlerFunc),
		delays:   make(map[string]time.Duration),
		failures: make(map[string]string),
		conns:    make(map[*websocket.Conn]struct{}),
	}
	s.registerDefaults()

	mux := http.NewServeMux()
	mux.HandleFunc("/browser", s.serveWS)
	s.httpSrv = httptest.NewServer(mux)
	return s
}

// URL returns the ws:// address of the extension endpoint.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http") + "/browser"
}

// Page returns the page model for configuration and inspection.
func (s *Server) Page() *Page {
	return s.page
}

// Handle replaces the handler for a command type.
func (s *Server) Handle(cmdType string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[cmdType] = fn
}

// Delay makes every command of the given type sleep before replying.
func (s *Server) Delay(cmdType string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[cmdType] = d
}

// Fail makes every command of the given type reply success=false with the
// given message.
func (s *Server) Fail(cmdType, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[cmdType] = message
}

// SuppressHello stops the server from sending the "connected" hello frame
// to new connections. Must be set before the client dials.
func (s *Server) SuppressHello() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressHello = true
}

// Close tears down all connections and the server.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.httpSrv.Close()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	hello := !s.suppressHello
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	var writeMu sync.Mutex
	write := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.WriteJSON(v)
	}

	if hello {
		write(map[string]string{"type": EventConnectedType})
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		wg.Add(1)
		go func(cmd Command) {
			defer wg.Done()
			s.execute(cmd, write)
		}(cmd)
	}
}

// EventConnectedType is the hello event type new connections receive.
const EventConnectedType = "connected"

func (s *Server) execute(cmd Command, write func(interface{})) {
	s.mu.Lock()
	delay := s.delays[cmd.Type]
	failure, failed := s.failures[cmd.Type]
	handler, known := s.handlers[cmd.Type]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	resp := response{CommandID: cmd.CommandID}
	switch {
	case failed:
		resp.Error = failure
	case !known:
		resp.Error = fmt.Sprintf("unknown command: %s", cmd.Type)
	default:
		result, err := handler(s.page, cmd.Params)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Result = result
		}
	}
	write(resp)
}

// tinyPNG is a 1x1 transparent PNG used for screenshot replies.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// TinyPNG returns the image bytes screenshot replies encode.
func TinyPNG() []byte {
	out := make([]byte, len(tinyPNG))
	copy(out, tinyPNG)
	return out
}

func (s *Server) registerDefaults() {
	s.handlers[bassethound.CmdNavigate] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			URL     string `json:"url"`
			WaitFor string `json:"wait_for"`
			Timeout int64  `json:"timeout"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.URL == "" {
			return nil, fmt.Errorf("navigate requires a url")
		}
		u, title := page.navigate(p.URL)
		return bassethound.NavigateResult{URL: u, Title: title}, nil
	}

	s.handlers[bassethound.CmdFillForm] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Fields map[string]string `json:"fields"`
			Submit bool              `json:"submit"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		filled, failedSel := page.fill(p.Fields, p.Submit)
		return bassethound.FillFormResult{Filled: filled, Failed: failedSel, Submitted: p.Submit}, nil
	}

	s.handlers[bassethound.CmdClick] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Selector string `json:"selector"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		page.click(p.Selector)
		return map[string]interface{}{"clicked": true, "selector": p.Selector}, nil
	}

	s.handlers[bassethound.CmdGetContent] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Selector string `json:"selector"`
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, err
			}
		}
		content, err := page.contentOf(p.Selector)
		if err != nil {
			return nil, err
		}
		return bassethound.Content{Content: content, Text: content}, nil
	}

	s.handlers[bassethound.CmdScreenshot] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Format  string `json:"format"`
			Quality int    `json:"quality"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.Format == "" {
			p.Format = "png"
		}
		dataURL := "data:image/" + p.Format + ";base64," + base64.StdEncoding.EncodeToString(tinyPNG)
		return bassethound.Screenshot{DataURL: dataURL, Format: p.Format}, nil
	}

	s.handlers[bassethound.CmdWaitForElement] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Selector string `json:"selector"`
			Timeout  int64  `json:"timeout"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		// Brief poll so selectors revealed by a concurrent click are seen.
		deadline := time.Now().Add(100 * time.Millisecond)
		found := page.has(p.Selector)
		for !found && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
			found = page.has(p.Selector)
		}
		return bassethound.WaitResult{Found: found, Selector: p.Selector}, nil
	}

	s.handlers[bassethound.CmdGetPageState] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return page.state(), nil
	}

	s.handlers[bassethound.CmdExecuteScript] = func(page *Page, params json.RawMessage) (interface{}, error) {
		var p struct {
			Script string `json:"script"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.Script == "" {
			return nil, fmt.Errorf("execute_script requires a script")
		}
		return page.scriptValue(p.Script), nil
	}

	s.handlers[bassethound.CmdGetCookies] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"cookies": page.cookieList()}, nil
	}

	s.handlers[bassethound.CmdDetectForms] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"forms": page.state().Forms}, nil
	}

	s.handlers[bassethound.CmdDetectCaptcha] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return page.captchaReport(), nil
	}

	s.handlers[bassethound.CmdStartNetworkMonitoring] = func(page *Page, params json.RawMessage) (interface{}, error) {
		page.startMonitoring()
		return map[string]interface{}{"monitoring": true}, nil
	}

	s.handlers[bassethound.CmdStopNetworkMonitoring] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"monitoring": false, "requests": page.stopMonitoring()}, nil
	}

	s.handlers[bassethound.CmdGetNetworkLogs] = func(page *Page, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"requests": page.networkLogs()}, nil
	}

	s.handlers[bassethound.CmdExportNetworkHAR] = func(page *Page, params json.RawMessage) (interface{}, error) {
		har := page.harExport()
		if har == nil {
			return map[string]interface{}{"har": nil}, nil
		}
		return map[string]interface{}{"har": har}, nil
	}
}
