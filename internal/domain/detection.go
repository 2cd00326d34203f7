package domain

import "time"

const (
	// UnknownIdentityID marks a detected face with no gallery match.
	UnknownIdentityID  = "UNKNOWN"
	UnknownDisplayName = "Unknown Person"

	// SystemIdentityID attributes events that could not be tied to an employee.
	SystemIdentityID = "SYSTEM"
)

// Identity is a registered employee and the face embedding used to recognize them
type Identity struct {
	ID          string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Embedding   []float64 `json:"-"`
}

// BoundingBox represents the face area in the frame
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectionEvent is produced once per face per detection cycle.
type DetectionEvent struct {
	IdentityID  string      `json:"identity_id"`
	DisplayName string      `json:"display_name"`
	Confidence  float64     `json:"confidence"`
	Distance    float64     `json:"distance"`
	Known       bool        `json:"known"`
	NewCredit   bool        `json:"new_credit"`
	BoundingBox BoundingBox `json:"bounding_box"`
	CameraID    string      `json:"camera_id"`
	Timestamp   time.Time   `json:"timestamp"`
}

// UnknownFace builds the event emitted for a face that matched nobody.
func UnknownFace(box BoundingBox, cameraID string, ts time.Time) DetectionEvent {
	return DetectionEvent{
		IdentityID:  UnknownIdentityID,
		DisplayName: UnknownDisplayName,
		BoundingBox: box,
		CameraID:    cameraID,
		Timestamp:   ts,
	}
}

// AttendanceRecord is one employee's attendance for one calendar day.
type AttendanceRecord struct {
	ID           int64      `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	Date         time.Time  `json:"date"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Confidence   float64    `json:"confidence"`
	Method       string     `json:"detection_method"`
}
