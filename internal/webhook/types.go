package webhook

import (
	"time"

	"github.com/google/uuid"
)

const EventSafetyAlert = "safety.alert"

// EventPayload is the JSON body POSTed to the alert receiver
type EventPayload struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Data      AlertData `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type AlertData struct {
	AlertID         uuid.UUID `json:"alert_id"`
	EmployeeID      string    `json:"employee_id"`
	Priority        string    `json:"priority"`
	Message         string    `json:"message"`
	Status          string    `json:"safety_status"`
	Violations      []string  `json:"violations"`
	SafetyScore     float64   `json:"safety_score"`
	PersonsDetected int       `json:"persons_detected"`
	CameraID        string    `json:"camera_id"`
	DetectedAt      time.Time `json:"detected_at"`
}
