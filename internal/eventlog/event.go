package eventlog

import (
	"encoding/json"
	"time"
)

// Type defines the kind of audit event.
type Type string

const (
	TypeSessionStart Type = "session_start"
	TypeLaunch       Type = "harvester_launch"
	TypeSessionEnd   Type = "session_end"
	TypeIOC          Type = "ioc_discovered"
)

// Status is the outcome recorded on an event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Event is one audit record. It serializes to a single flat JSON object;
// consumers must tolerate unknown event types and unknown keys, and this
// side must round-trip keys it does not know (monitors add their own).
type Event struct {
	Type      Type
	Timestamp time.Time
	Status    Status
	BotID     string
	Reason    string
	Data      map[string]any
}

// New returns an event of the given type and status stamped now (UTC).
func New(t Type, s Status) Event {
	return Event{Type: t, Timestamp: time.Now().UTC(), Status: s}
}

// wire is the on-disk shape shared by MarshalJSON and UnmarshalJSON.
type wire struct {
	Type      Type           `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	Status    Status         `json:"status,omitempty"`
	BotID     string         `json:"bot_id,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Type:      e.Type,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Status:    e.Status,
		BotID:     e.BotID,
		Reason:    e.Reason,
		Data:      e.Data,
	})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		// monitors may stamp with coarser formats; the timestamp is
		// informational for readers, so keep the zero value
		ts = time.Time{}
	}
	*e = Event{Type: w.Type, Timestamp: ts, Status: w.Status, BotID: w.BotID, Reason: w.Reason, Data: w.Data}
	return nil
}
