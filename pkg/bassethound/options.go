package bassethound

import (
	"time"

	"github.com/basset-hound/automation/internal/transcript"
)

// Config holds client configuration.
type Config struct {
	// HandshakeTimeout bounds the WebSocket handshake plus the wait for
	// the extension's "connected" hello frame.
	HandshakeTimeout time.Duration

	// CallTimeout is the default deadline applied to a command when the
	// caller's context carries none.
	CallTimeout time.Duration

	// TraceFrames is the number of recent wire frames kept for debugging.
	// Zero disables the trace.
	TraceFrames int

	// Recorder, when set, receives every frame as a session transcript.
	Recorder *transcript.Recorder
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout: 10 * time.Second,
		CallTimeout:      30 * time.Second,
		TraceFrames:      64,
	}
}

// Option configures a client.
type Option func(*Config)

// WithHandshakeTimeout sets the connect plus hello deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HandshakeTimeout = d
	}
}

// WithCallTimeout sets the default per-command deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithTraceFrames sets how many recent wire frames are kept. Zero disables
// the trace.
func WithTraceFrames(n int) Option {
	return func(c *Config) {
		c.TraceFrames = n
	}
}

// WithRecorder attaches a transcript recorder to the session.
func WithRecorder(rec *transcript.Recorder) Option {
	return func(c *Config) {
		c.Recorder = rec
	}
}
