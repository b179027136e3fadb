// Package bassethound is a client for the Basset Hound browser extension's
// WebSocket remote-control protocol.
//
// The extension exposes a command channel at ws://host:port/browser. Each
// command is a JSON text frame {command_id, type, params}; the extension
// replies with {command_id, success, result|error}. Replies may arrive in
// any order, so the client correlates them to in-flight calls by
// command_id. An unsolicited {"type":"connected"} frame announces
// readiness; Dial does not return until it arrives.
//
// Typical use:
//
//	client, err := bassethound.Dial(ctx, "ws://localhost:8765/browser")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if _, err := client.Navigate(ctx, "https://example.com", bassethound.WithWaitFor("body")); err != nil {
//		return err
//	}
//	state, err := client.PageState(ctx)
//
// All commands accept a context for cancellation; a context without a
// deadline gets the client's default call timeout.
package bassethound
