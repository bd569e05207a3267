// Package stream runs live transcription over a raw PCM byte stream, emitting
// a line of JSON per event. Chunks are decoded in strict arrival order with a
// configurable overlap; overlapping decoded text is de-duplicated by
// confirming only each chunk's non-overlapped prefix and discarding the stale
// tail, which the next chunk re-decodes with more context.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// Event is one message of the session's output stream. The set of
// implementations is closed: StatusEvent, RecognitionEvent, ErrorEvent.
type Event interface {
	isEvent()
}

// Session states reported via StatusEvent.
const (
	StateReady = "ready"
	StateIdle  = "idle"
)

// StatusEvent reports a session lifecycle transition.
type StatusEvent struct {
	Type  string `json:"type"` // always "status"
	State string `json:"state"`
}

func (StatusEvent) isEvent() {}

// NewStatusEvent returns a tagged StatusEvent.
func NewStatusEvent(state string) StatusEvent {
	return StatusEvent{Type: "status", State: state}
}

// RecognitionEvent carries confirmed transcript text for one chunk.
type RecognitionEvent struct {
	Type string `json:"type"` // always "asr"
	Text string `json:"text"`

	// Offset is the chunk's start position in the stream, seconds.
	Offset float64 `json:"offset"`

	// AudioSeconds is the chunk's audio duration.
	AudioSeconds float64 `json:"audio_seconds"`

	// RTF is the real-time factor: processing seconds per audio second.
	// Below 1 means the session keeps up with live input.
	RTF float64 `json:"rtf"`
}

func (RecognitionEvent) isEvent() {}

// NewRecognitionEvent returns a tagged RecognitionEvent.
func NewRecognitionEvent(text string, offset, audioSeconds, rtf float64) RecognitionEvent {
	return RecognitionEvent{Type: "asr", Text: text, Offset: offset, AudioSeconds: audioSeconds, RTF: rtf}
}

// ErrorEvent reports a chunk-level failure. The session continues with the
// next chunk.
type ErrorEvent struct {
	Type   string `json:"type"` // always "error"
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (ErrorEvent) isEvent() {}

// NewErrorEvent returns a tagged ErrorEvent.
func NewErrorEvent(code, detail string) ErrorEvent {
	return ErrorEvent{Type: "error", Code: code, Detail: detail}
}

// Sink receives session events. Emit is called from a single goroutine.
type Sink interface {
	Emit(Event) error
}

// JSONLSink writes each event as one JSON line.
type JSONLSink struct {
	enc *json.Encoder
}

// NewJSONLSink returns a Sink writing JSONL to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) Emit(e Event) error {
	return s.enc.Encode(e)
}

// DecodeEvent parses one JSONL line back into its typed event. Unknown or
// missing type tags are an error rather than an untyped map.
func DecodeEvent(line []byte) (Event, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &tag); err != nil {
		return nil, fmt.Errorf("stream: malformed event: %w", err)
	}

	switch tag.Type {
	case "status":
		var e StatusEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("stream: malformed status event: %w", err)
		}
		return e, nil
	case "asr":
		var e RecognitionEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("stream: malformed asr event: %w", err)
		}
		return e, nil
	case "error":
		var e ErrorEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("stream: malformed error event: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("stream: unknown event type %q", tag.Type)
	}
}
