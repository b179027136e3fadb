package bassethound_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basset-hound/automation/internal/buffer"
	"github.com/basset-hound/automation/internal/fakeext"
	"github.com/basset-hound/automation/internal/transcript"
	"github.com/basset-hound/automation/pkg/bassethound"
)

// dialTestExtension starts a fake extension and connects a client to it.
func dialTestExtension(t *testing.T, opts ...bassethound.Option) (*fakeext.Server, *bassethound.Client) {
	t.Helper()
	srv := fakeext.New()
	t.Cleanup(srv.Close)

	client, err := bassethound.Dial(context.Background(), srv.URL(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return srv, client
}

func TestDialWaitsForHello(t *testing.T) {
	srv, client := dialTestExtension(t)
	require.Equal(t, srv.URL(), client.URL())

	// The client is usable immediately after Dial returns
	state, err := client.PageState(context.Background())
	require.NoError(t, err)
	require.Empty(t, state.URL)
}

func TestDialFailsWithoutHello(t *testing.T) {
	srv := fakeext.New()
	defer srv.Close()
	srv.SuppressHello()

	_, err := bassethound.Dial(context.Background(), srv.URL(),
		bassethound.WithHandshakeTimeout(150*time.Millisecond))
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialConnectionRefused(t *testing.T) {
	_, err := bassethound.Dial(context.Background(), "ws://127.0.0.1:1/browser",
		bassethound.WithHandshakeTimeout(time.Second))
	require.Error(t, err)
}

func TestCommandRejection(t *testing.T) {
	srv, client := dialTestExtension(t)
	srv.Fail(bassethound.CmdNavigate, "tab crashed")

	_, err := client.Navigate(context.Background(), "https://example.com/")
	require.Error(t, err)

	var cmdErr *bassethound.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, bassethound.CmdNavigate, cmdErr.Type)
	require.Equal(t, "tab crashed", cmdErr.Message)
	require.Contains(t, cmdErr.Error(), "tab crashed")
}

func TestCallTimeoutAgainstSlowExtension(t *testing.T) {
	srv, client := dialTestExtension(t, bassethound.WithCallTimeout(80*time.Millisecond))
	srv.Delay(bassethound.CmdGetPageState, 500*time.Millisecond)

	_, err := client.PageState(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The connection survives a timed-out command; the late reply is dropped
	report, err := client.DetectCaptcha(context.Background())
	require.NoError(t, err)
	require.False(t, report.HasCaptcha)
}

func TestConcurrentCommandsCompleteIndependently(t *testing.T) {
	srv, client := dialTestExtension(t)
	srv.Delay(bassethound.CmdGetPageState, 250*time.Millisecond)

	slowDone := make(chan error, 1)
	go func() {
		_, err := client.PageState(context.Background())
		slowDone <- err
	}()

	// The fast command must not queue behind the slow one
	start := time.Now()
	_, err := client.DetectCaptcha(context.Background())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 200*time.Millisecond)

	require.NoError(t, <-slowDone)
}

func TestCallAfterClose(t *testing.T) {
	_, client := dialTestExtension(t)
	require.NoError(t, client.Close())

	_, err := client.PageState(context.Background())
	require.ErrorIs(t, err, bassethound.ErrConnectionClosed)
}

func TestServerGoesAway(t *testing.T) {
	srv, client := dialTestExtension(t)
	srv.Close()

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the connection dropping")
	}

	_, err := client.PageState(context.Background())
	require.ErrorIs(t, err, bassethound.ErrConnectionClosed)
}

func TestWireTraceCapturesFrames(t *testing.T) {
	_, client := dialTestExtension(t)

	_, err := client.Navigate(context.Background(), "https://example.com/")
	require.NoError(t, err)

	frames := client.WireTrace()
	require.NotEmpty(t, frames)

	var sawNavigateOut, sawReplyIn bool
	for _, f := range frames {
		if f.Dir == buffer.Send && strings.Contains(string(f.Data), `"type":"navigate"`) {
			sawNavigateOut = true
		}
		if f.Dir == buffer.Recv && strings.Contains(string(f.Data), `"success":true`) {
			sawReplyIn = true
		}
	}
	require.True(t, sawNavigateOut, "outbound navigate frame not traced")
	require.True(t, sawReplyIn, "inbound reply frame not traced")
}

func TestWireTraceDisabled(t *testing.T) {
	_, client := dialTestExtension(t, bassethound.WithTraceFrames(0))

	_, err := client.Navigate(context.Background(), "https://example.com/")
	require.NoError(t, err)
	require.Nil(t, client.WireTrace())
}

func TestTranscriptRecording(t *testing.T) {
	var buf bytes.Buffer
	rec := transcript.NewRecorderWithWriter(&buf)

	srv := fakeext.New()
	defer srv.Close()

	client, err := bassethound.Dial(context.Background(), srv.URL(), bassethound.WithRecorder(rec))
	require.NoError(t, err)

	_, err = client.Navigate(context.Background(), "https://example.com/")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	var lines []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.GreaterOrEqual(t, len(lines), 4, "expected header, hello, command and reply lines")

	var header transcript.Header
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	require.Equal(t, 1, header.Version)
	require.Equal(t, srv.URL(), header.URL)

	var sawSend, sawRecv bool
	for _, line := range lines[1:] {
		var event transcript.Event
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		switch event.Dir {
		case "send":
			sawSend = true
		case "recv":
			sawRecv = true
		}
	}
	require.True(t, sawSend)
	require.True(t, sawRecv)
}

func TestCloseIsIdempotent(t *testing.T) {
	_, client := dialTestExtension(t)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}
