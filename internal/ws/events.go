package ws

import (
	"strings"
	"time"
)

type EventType string

const (
	EventFaceDetection EventType = "face_detection"
	EventSafetyResult  EventType = "safety_result"
)

// Event is the envelope written to websocket clients
type Event struct {
	Type      EventType `json:"type"`
	CameraID  string    `json:"camera_id"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseEventTypes reads a comma-separated event filter. Empty means all events.
func ParseEventTypes(raw string) (map[EventType]bool, bool) {
	all := map[EventType]bool{EventFaceDetection: true, EventSafetyResult: true}

	out := make(map[EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		name := EventType(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !all[name] {
			return nil, false
		}
		out[name] = true
	}
	if len(out) == 0 {
		return all, true
	}
	return out, true
}
