package bassethound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/basset-hound/automation/internal/buffer"
	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/internal/transcript"
)

var log = logger.Get()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Screenshot and HAR payloads
	// arrive base64- or JSON-encoded in a single frame.
	maxMessageSize = 32 << 20

	// Outbound frame queue size.
	sendQueueSize = 256
)

// Client is a connection to the browser extension. It correlates reply
// frames to in-flight commands by command_id, so commands may be issued
// concurrently from multiple goroutines.
type Client struct {
	url  string
	cfg  *Config
	conn *websocket.Conn

	send chan []byte

	pendingMu sync.Mutex
	pending   map[string]chan *Response

	connected     chan struct{} // closed when the hello frame arrives
	connectedOnce sync.Once

	quit      chan struct{} // closed by Close to request shutdown
	closeOnce sync.Once

	done     chan struct{} // closed when the read loop exits
	closeErr error         // set by the read loop before closing done

	trace *buffer.FrameRing
	rec   *transcript.Recorder
}

// Dial connects to the extension at url (for example
// "ws://localhost:8765/browser") and waits for its hello frame. The
// returned client is ready to issue commands.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, oops.Wrapf(err, "dial %s", url)
	}

	c := &Client{
		url:       url,
		cfg:       cfg,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		pending:   make(map[string]chan *Response),
		connected: make(chan struct{}),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		rec:       cfg.Recorder,
	}
	if cfg.TraceFrames > 0 {
		c.trace = buffer.NewFrameRing(cfg.TraceFrames)
	}
	if c.rec != nil {
		if err := c.rec.WriteHeader(url, nil); err != nil {
			log.WithError(err).Warn("transcript header write failed")
		}
	}

	go c.readLoop()
	go c.writeLoop()

	helloCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		helloCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}

	select {
	case <-c.connected:
		log.WithField("url", url).Debug("extension connection established")
		return c, nil
	case <-c.done:
		err := c.terminalErr()
		c.Close()
		return nil, oops.Errorf("connection closed before extension hello: %w", err)
	case <-helloCtx.Done():
		c.Close()
		return nil, oops.Wrapf(helloCtx.Err(), "waiting for extension hello")
	}
}

// URL returns the address this client dialed.
func (c *Client) URL() string {
	return c.url
}

// Done is closed once the connection has terminated for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WireTrace returns the most recent wire frames, oldest first, or nil when
// tracing is disabled.
func (c *Client) WireTrace() []buffer.Frame {
	if c.trace == nil {
		return nil
	}
	return c.trace.Frames()
}

// Call sends a command frame and waits for the correlated reply. It returns
// the raw result payload, a *CommandError when the extension rejects the
// command, or a context/connection error. When ctx carries no deadline the
// configured CallTimeout applies.
func (c *Client) Call(ctx context.Context, cmdType string, params interface{}) (json.RawMessage, error) {
	select {
	case <-c.done:
		return nil, c.terminalErr()
	default:
	}

	if params == nil {
		params = struct{}{}
	}
	id := uuid.NewString()
	data, err := json.Marshal(Command{CommandID: id, Type: cmdType, Params: params})
	if err != nil {
		return nil, oops.Wrapf(err, "marshal %s command", cmdType)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	ch := make(chan *Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	select {
	case c.send <- data:
	case <-ctx.Done():
		return nil, oops.Wrapf(ctx.Err(), "command %s not sent", cmdType)
	case <-c.quit:
		return nil, ErrConnectionClosed
	case <-c.done:
		return nil, c.terminalErr()
	}

	select {
	case resp := <-ch:
		return c.unpack(cmdType, resp)
	case <-ctx.Done():
		return nil, oops.Wrapf(ctx.Err(), "command %s (%s) timed out", cmdType, id)
	case <-c.done:
		// The reply may have been delivered concurrently with teardown.
		select {
		case resp := <-ch:
			return c.unpack(cmdType, resp)
		default:
		}
		return nil, c.terminalErr()
	}
}

func (c *Client) unpack(cmdType string, resp *Response) (json.RawMessage, error) {
	if !resp.Success {
		return nil, &CommandError{CommandID: resp.CommandID, Type: cmdType, Message: resp.Error}
	}
	return resp.Result, nil
}

// callInto issues a command and decodes its result into out. A nil out
// discards the result.
func (c *Client) callInto(ctx context.Context, cmdType string, params, out interface{}) error {
	raw, err := c.Call(ctx, cmdType, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return oops.Wrapf(err, "decode %s result", cmdType)
	}
	return nil
}

// Close requests a clean shutdown and waits for the connection to
// terminate. It is safe to call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
	select {
	case <-c.done:
	case <-time.After(writeWait):
		c.conn.Close()
		<-c.done
	}
	return nil
}

func (c *Client) terminalErr() error {
	err := c.closeErr
	if err == nil || errors.Is(err, ErrConnectionClosed) {
		return ErrConnectionClosed
	}
	return oops.Errorf("%w: %v", ErrConnectionClosed, err)
}

// readLoop pumps frames off the connection, routing replies to their
// pending commands and events to the event handler. It owns closeErr and
// the done channel.
func (c *Client) readLoop() {
	defer func() {
		c.conn.Close()
		close(c.done)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.quit:
				c.closeErr = ErrConnectionClosed
			default:
				c.closeErr = err
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Debug("connection read failed")
				}
			}
			return
		}
		c.record(buffer.Recv, message)
		c.dispatch(message)
	}
}

// dispatch routes one inbound frame.
func (c *Client) dispatch(message []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.WithError(err).Warn("discarding malformed frame")
		return
	}

	if frame.CommandID != "" {
		c.pendingMu.Lock()
		ch, ok := c.pending[frame.CommandID]
		if ok {
			delete(c.pending, frame.CommandID)
		}
		c.pendingMu.Unlock()
		if !ok {
			// Reply for a command that already timed out, or a peer bug.
			log.WithField("command_id", frame.CommandID).Debug("dropping reply for unknown command")
			return
		}
		ch <- &Response{
			CommandID: frame.CommandID,
			Success:   frame.Success,
			Result:    frame.Result,
			Error:     frame.Error,
		}
		return
	}

	switch frame.Type {
	case EventConnected:
		c.connectedOnce.Do(func() {
			close(c.connected)
		})
	default:
		log.WithField("type", frame.Type).Debug("ignoring unsolicited event")
	}
}

// writeLoop pumps frames from the send queue to the connection and keeps
// the connection alive with periodic pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.record(buffer.Send, message)
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.done:
			return
		}
	}
}

func (c *Client) record(dir buffer.Direction, data []byte) {
	if c.trace != nil {
		c.trace.Record(dir, data)
	}
	if c.rec == nil {
		return
	}
	var err error
	if dir == buffer.Send {
		err = c.rec.RecordSend(data)
	} else {
		err = c.rec.RecordRecv(data)
	}
	if err != nil {
		log.WithError(err).Warn("transcript write failed")
	}
}
