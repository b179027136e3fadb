package buffer

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFrameRing(t *testing.T) {
	// Test with valid capacity
	r := NewFrameRing(16)
	if r.Cap() != 16 {
		t.Errorf("expected capacity 16, got %d", r.Cap())
	}
	if r.Len() != 0 {
		t.Errorf("expected length 0, got %d", r.Len())
	}

	// Test with zero capacity (should default to 1)
	r = NewFrameRing(0)
	if r.Cap() != 1 {
		t.Errorf("expected capacity 1 for zero input, got %d", r.Cap())
	}

	// Test with negative capacity (should default to 1)
	r = NewFrameRing(-3)
	if r.Cap() != 1 {
		t.Errorf("expected capacity 1 for negative input, got %d", r.Cap())
	}
}

func TestFrameRing_Record(t *testing.T) {
	r := NewFrameRing(4)

	r.Record(Send, []byte(`{"command_id":"a"}`))
	r.Record(Recv, []byte(`{"command_id":"a","success":true}`))

	if r.Len() != 2 {
		t.Errorf("expected length 2, got %d", r.Len())
	}

	frames := r.Frames()
	if frames[0].Dir != Send || frames[1].Dir != Recv {
		t.Errorf("expected send then recv, got %s then %s", frames[0].Dir, frames[1].Dir)
	}
	if !bytes.Equal(frames[0].Data, []byte(`{"command_id":"a"}`)) {
		t.Errorf("unexpected first frame data: %s", frames[0].Data)
	}
}

func TestFrameRing_RecordOverflow(t *testing.T) {
	r := NewFrameRing(3)

	r.Record(Send, []byte("one"))
	r.Record(Send, []byte("two"))
	r.Record(Send, []byte("three"))
	r.Record(Send, []byte("four"))

	if r.Len() != 3 {
		t.Errorf("expected length 3, got %d", r.Len())
	}

	frames := r.Frames()
	// Oldest frame ("one") should have been discarded
	want := []string{"two", "three", "four"}
	for i, w := range want {
		if string(frames[i].Data) != w {
			t.Errorf("frame %d: expected %q, got %q", i, w, frames[i].Data)
		}
	}
}

func TestFrameRing_RecordEmpty(t *testing.T) {
	r := NewFrameRing(4)
	r.Record(Send, []byte("hello"))

	// Empty frames are ignored
	r.Record(Recv, nil)
	r.Record(Recv, []byte{})

	if r.Len() != 1 {
		t.Errorf("expected length 1, got %d", r.Len())
	}
}

func TestFrameRing_Frames(t *testing.T) {
	r := NewFrameRing(4)

	// Frames on an empty ring
	if frames := r.Frames(); frames != nil {
		t.Errorf("expected nil for empty ring, got %v", frames)
	}

	src := []byte("payload")
	r.Record(Send, src)

	// Record copies the input; mutating the source must not affect the ring
	src[0] = 'X'
	frames := r.Frames()
	if string(frames[0].Data) != "payload" {
		t.Errorf("Record should copy data, got %q", frames[0].Data)
	}

	// Frames returns copies; mutating the result must not affect the ring
	frames[0].Data[0] = 'Y'
	frames2 := r.Frames()
	if string(frames2[0].Data) != "payload" {
		t.Errorf("Frames should return copies, got %q", frames2[0].Data)
	}
}

func TestFrameRing_Clear(t *testing.T) {
	r := NewFrameRing(4)
	r.Record(Send, []byte("hello"))

	r.Clear()

	if r.Len() != 0 {
		t.Errorf("expected length 0 after clear, got %d", r.Len())
	}
	if frames := r.Frames(); frames != nil {
		t.Errorf("expected nil after clear, got %v", frames)
	}

	// Should be able to record again after clear
	r.Record(Recv, []byte("world"))
	frames := r.Frames()
	if len(frames) != 1 || string(frames[0].Data) != "world" {
		t.Errorf("expected single 'world' frame after clear, got %v", frames)
	}
}

func TestFrameRing_Dump(t *testing.T) {
	r := NewFrameRing(4)
	r.Record(Send, []byte(`{"type":"navigate"}`))
	r.Record(Recv, []byte(`{"success":true}`))

	var out strings.Builder
	if err := r.Dump(&out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], ">> ") || !strings.Contains(lines[0], `{"type":"navigate"}`) {
		t.Errorf("unexpected outbound line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "<< ") || !strings.Contains(lines[1], `{"success":true}`) {
		t.Errorf("unexpected inbound line: %q", lines[1])
	}
}
