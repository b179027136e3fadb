// Package transcript records automation sessions in a JSON-Lines format:
// one header line followed by one event line per wire frame.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Header is the first line of a transcript.
type Header struct {
	Version   int               `json:"version"`
	URL       string            `json:"url"`
	Timestamp int64             `json:"timestamp"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Event is a single recorded frame.
// Format on disk: [time_offset, direction, frame]
type Event struct {
	TimeOffset float64
	Dir        string // "send" or "recv"
	Frame      json.RawMessage
}

// MarshalJSON implements custom JSON marshaling for Event.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeOffset, e.Dir, e.Frame})
}

// UnmarshalJSON implements custom JSON unmarshaling for Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid event format: expected 3 elements, got %d", len(arr))
	}
	if err := json.Unmarshal(arr[0], &e.TimeOffset); err != nil {
		return fmt.Errorf("invalid time offset: %w", err)
	}
	if err := json.Unmarshal(arr[1], &e.Dir); err != nil {
		return fmt.Errorf("invalid direction: %w", err)
	}
	e.Frame = arr[2]
	return nil
}

// Recorder writes session transcripts. It is safe for concurrent use.
type Recorder struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// NewRecorder creates a Recorder that writes to the given file path.
func NewRecorder(filePath string) (*Recorder, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	return &Recorder{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewRecorderWithWriter creates a Recorder that writes to the given writer.
// This is useful for testing.
func NewRecorderWithWriter(w io.Writer) *Recorder {
	return &Recorder{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteHeader writes the transcript header line.
// This should be called once at the beginning of the recording.
func (r *Recorder) WriteHeader(url string, meta map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := Header{
		Version:   1,
		URL:       url,
		Timestamp: r.startTime.Unix(),
		Meta:      meta,
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// RecordSend writes an outbound frame event.
func (r *Recorder) RecordSend(frame []byte) error {
	return r.writeEvent("send", frame)
}

// RecordRecv writes an inbound frame event.
func (r *Recorder) RecordRecv(frame []byte) error {
	return r.writeEvent("recv", frame)
}

func (r *Recorder) writeEvent(dir string, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw := json.RawMessage(frame)
	if !json.Valid(frame) {
		// Non-JSON frames are recorded as a quoted string
		quoted, err := json.Marshal(string(frame))
		if err != nil {
			return fmt.Errorf("failed to quote frame: %w", err)
		}
		raw = quoted
	}

	event := Event{
		TimeOffset: time.Since(r.startTime).Seconds(),
		Dir:        dir,
		Frame:      raw,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := r.writer.Write(append(eventData, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Close closes the transcript file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// StartTime returns the start time of the recording.
func (r *Recorder) StartTime() time.Time {
	return r.startTime
}
