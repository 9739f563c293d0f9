package amqp

import (
	"encoding/json"
	"time"
)

// Event names, also used as routing keys.
const (
	EventExported = "registry.exported"
	EventFailed   = "registry.failed"
)

// ExportMessage announces the outcome of exporting one identifier. It
// carries references only, never registry contents.
type ExportMessage struct {
	Event      string    `json:"event"`
	RunID      string    `json:"run_id"`
	Identifier string    `json:"identifier"`
	RegistryID int64     `json:"registry_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Ref        string    `json:"ref,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewExportedMessage creates a success message.
func NewExportedMessage(runID, identifier string, registryID int64, title, ref string) *ExportMessage {
	return &ExportMessage{
		Event:      EventExported,
		RunID:      runID,
		Identifier: identifier,
		RegistryID: registryID,
		Title:      title,
		Ref:        ref,
		Timestamp:  time.Now(),
	}
}

// NewFailedMessage creates a failure message.
func NewFailedMessage(runID, identifier, stage string, err error) *ExportMessage {
	msg := &ExportMessage{
		Event:      EventFailed,
		RunID:      runID,
		Identifier: identifier,
		Stage:      stage,
		Timestamp:  time.Now(),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportMessageFromJSON creates a message from JSON bytes
func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
