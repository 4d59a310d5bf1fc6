package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted while a scan runs.
const (
	TypeScanStart       = "scan-start"
	TypeFileScanned     = "file-scanned"
	TypeFileSkipped     = "file-skipped"
	TypeManifestChecked = "manifest-checked"
	TypeScanFinished    = "scan-finished"
)

// Event represents a single NDJSON progress record.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emitter writes NDJSON events to an io.Writer safely across goroutines.
// A nil *Emitter discards everything.
type Emitter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewEmitter returns a new NDJSON emitter. A nil writer yields a nil emitter.
func NewEmitter(w io.Writer) *Emitter {
	if w == nil {
		return nil
	}
	return &Emitter{writer: w}
}

// Emit serializes the event to JSON and appends a newline.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writer.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}

// Emitf is a convenience wrapper that builds an Event from a type, message
// and alternating key/value pairs. Odd trailing keys are dropped.
func (e *Emitter) Emitf(typ, msg string, kv ...interface{}) error {
	if e == nil {
		return nil
	}
	var fields map[string]interface{}
	if len(kv) >= 2 {
		fields = make(map[string]interface{}, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				continue
			}
			fields[key] = kv[i+1]
		}
	}
	return e.Emit(Event{Type: typ, Message: msg, Fields: fields})
}
