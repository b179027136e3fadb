package bassethound

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCallTimeoutDeregistersPending(t *testing.T) {
	c := newLoopbackClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Call(ctx, CmdGetPageState, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	c.pendingMu.Lock()
	n := len(c.pending)
	c.pendingMu.Unlock()
	if n != 0 {
		t.Errorf("expected no pending entries after timeout, got %d", n)
	}
}

func TestCallAppliesDefaultTimeout(t *testing.T) {
	c := newLoopbackClient()
	c.cfg.CallTimeout = 40 * time.Millisecond

	start := time.Now()
	_, err := c.Call(context.Background(), CmdGetPageState, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("default timeout took too long: %v", elapsed)
	}
}

func TestCallAfterTeardown(t *testing.T) {
	c := newLoopbackClient()
	close(c.done)

	_, err := c.Call(context.Background(), CmdClick, clickParams{Selector: "a"})
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestTerminalErrWrapsTransportError(t *testing.T) {
	c := newLoopbackClient()

	// Without a recorded cause the bare sentinel comes back
	if err := c.terminalErr(); err != ErrConnectionClosed {
		t.Errorf("expected bare sentinel, got %v", err)
	}

	c.closeErr = errors.New("connection reset by peer")
	err := c.terminalErr()
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("wrapped error should match sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset by peer") {
		t.Errorf("wrapped error should carry the cause, got %v", err)
	}
}

func TestDispatchHello(t *testing.T) {
	c := newLoopbackClient()

	c.dispatch([]byte(`{"type":"connected"}`))
	select {
	case <-c.connected:
	default:
		t.Fatal("hello frame did not signal connected")
	}

	// A duplicate hello must be harmless
	c.dispatch([]byte(`{"type":"connected"}`))
}

func TestDispatchMalformedFrame(t *testing.T) {
	c := newLoopbackClient()
	c.pending["a"] = make(chan *Response, 1)

	c.dispatch([]byte(`{"command_id":`))

	if len(c.pending) != 1 {
		t.Error("malformed frame must not consume pending entries")
	}
	if len(c.pending["a"]) != 0 {
		t.Error("malformed frame must not deliver a reply")
	}
}

func TestCushionedRespectsCallerDeadline(t *testing.T) {
	c := newLoopbackClient()

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	ctx, cleanup := c.cushioned(parent, time.Second)
	defer cleanup()
	if d, ok := ctx.Deadline(); !ok || time.Until(d) < 30*time.Minute {
		t.Errorf("caller deadline should be kept, got %v", d)
	}

	ctx2, cleanup2 := c.cushioned(context.Background(), time.Second)
	defer cleanup2()
	d, ok := ctx2.Deadline()
	if !ok {
		t.Fatal("expected a derived deadline")
	}
	if until := time.Until(d); until < 5*time.Second || until > 7*time.Second {
		t.Errorf("expected roughly 6s cushioned deadline, got %v", until)
	}
}
