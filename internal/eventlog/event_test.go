package eventlog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventMarshalFlat(t *testing.T) {
	e := Event{
		Type:      TypeLaunch,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:    StatusSuccess,
		BotID:     "harvester-001",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal into map: %v", err)
	}
	if m["event_type"] != "harvester_launch" || m["status"] != "success" || m["bot_id"] != "harvester-001" {
		t.Fatalf("unexpected fields: %v", m)
	}
	ts, _ := m["timestamp"].(string)
	if !strings.HasPrefix(ts, "2025-03-01T12:00:00") {
		t.Fatalf("unexpected timestamp: %q", ts)
	}
	if _, ok := m["reason"]; ok {
		t.Fatalf("empty reason must be omitted: %v", m)
	}
}

func TestEventUnmarshalUnknownFields(t *testing.T) {
	// readers must tolerate keys and event types written by other tools
	line := `{"event_type":"ioc_discovered","timestamp":"2025-03-01T12:00:00+00:00","severity":"high","data":{"ioc_type":"phishing_url","value":"http://bad.example","extra":1}}`
	var e Event
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Type != TypeIOC {
		t.Fatalf("unexpected type: %q", e.Type)
	}
	if v, _ := e.Data["value"].(string); v != "http://bad.example" {
		t.Fatalf("unexpected data: %v", e.Data)
	}
}

func TestEventUnmarshalBadTimestamp(t *testing.T) {
	var e Event
	if err := json.Unmarshal([]byte(`{"event_type":"session_start","timestamp":"yesterday","status":"success"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.Timestamp.IsZero() {
		t.Fatalf("expected zero timestamp, got %v", e.Timestamp)
	}
}
