package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRecorder_HeaderAndEvents(t *testing.T) {
	var out bytes.Buffer
	rec := NewRecorderWithWriter(&out)

	if err := rec.WriteHeader("ws://localhost:8765/browser", map[string]string{"driver": "demo"}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := rec.RecordSend([]byte(`{"command_id":"a","type":"navigate","params":{"url":"https://example.com"}}`)); err != nil {
		t.Fatalf("RecordSend failed: %v", err)
	}
	if err := rec.RecordRecv([]byte(`{"command_id":"a","success":true,"result":{}}`)); err != nil {
		t.Fatalf("RecordRecv failed: %v", err)
	}

	lines := []string{}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var header Header
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("failed to parse header: %v", err)
	}
	if header.Version != 1 {
		t.Errorf("expected version 1, got %d", header.Version)
	}
	if header.URL != "ws://localhost:8765/browser" {
		t.Errorf("unexpected url: %s", header.URL)
	}
	if header.Meta["driver"] != "demo" {
		t.Errorf("unexpected meta: %v", header.Meta)
	}
	if header.Timestamp != rec.StartTime().Unix() {
		t.Errorf("timestamp mismatch: %d vs %d", header.Timestamp, rec.StartTime().Unix())
	}

	var sent Event
	if err := json.Unmarshal([]byte(lines[1]), &sent); err != nil {
		t.Fatalf("failed to parse send event: %v", err)
	}
	if sent.Dir != "send" {
		t.Errorf("expected direction send, got %s", sent.Dir)
	}
	if sent.TimeOffset < 0 {
		t.Errorf("expected non-negative offset, got %f", sent.TimeOffset)
	}

	var frame struct {
		CommandID string `json:"command_id"`
		Type      string `json:"type"`
	}
	if err := json.Unmarshal(sent.Frame, &frame); err != nil {
		t.Fatalf("failed to parse recorded frame: %v", err)
	}
	if frame.Type != "navigate" {
		t.Errorf("expected navigate frame, got %s", frame.Type)
	}

	var received Event
	if err := json.Unmarshal([]byte(lines[2]), &received); err != nil {
		t.Fatalf("failed to parse recv event: %v", err)
	}
	if received.Dir != "recv" {
		t.Errorf("expected direction recv, got %s", received.Dir)
	}
	if received.TimeOffset < sent.TimeOffset {
		t.Errorf("recv offset %f precedes send offset %f", received.TimeOffset, sent.TimeOffset)
	}
}

func TestRecorder_NonJSONFrame(t *testing.T) {
	var out bytes.Buffer
	rec := NewRecorderWithWriter(&out)

	if err := rec.RecordRecv([]byte("not json at all")); err != nil {
		t.Fatalf("RecordRecv failed: %v", err)
	}

	var event Event
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &event); err != nil {
		t.Fatalf("failed to parse event: %v", err)
	}

	var s string
	if err := json.Unmarshal(event.Frame, &s); err != nil {
		t.Fatalf("expected quoted string frame: %v", err)
	}
	if s != "not json at all" {
		t.Errorf("unexpected frame content: %q", s)
	}
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	in := Event{
		TimeOffset: 1.25,
		Dir:        "send",
		Frame:      json.RawMessage(`{"type":"click"}`),
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "[1.25,") {
		t.Errorf("expected array form, got %s", data)
	}

	var out Event
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.TimeOffset != in.TimeOffset || out.Dir != in.Dir {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}
	if string(out.Frame) != string(in.Frame) {
		t.Errorf("frame mismatch: %s vs %s", out.Frame, in.Frame)
	}
}

func TestEvent_UnmarshalInvalid(t *testing.T) {
	var e Event
	if err := json.Unmarshal([]byte(`[1.0,"send"]`), &e); err == nil {
		t.Error("expected error for 2-element event")
	}
	if err := json.Unmarshal([]byte(`["x","send",{}]`), &e); err == nil {
		t.Error("expected error for non-numeric offset")
	}
	if err := json.Unmarshal([]byte(`[1.0,5,{}]`), &e); err == nil {
		t.Error("expected error for non-string direction")
	}
}
