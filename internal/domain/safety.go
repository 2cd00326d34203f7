package domain

import (
	"time"

	"github.com/google/uuid"
)

type SafetyStatus string

const (
	SafetyCompliant        SafetyStatus = "compliant"
	SafetyMinorViolation   SafetyStatus = "minor_violation"
	SafetyMajorViolation   SafetyStatus = "major_violation"
	SafetyCritical         SafetyStatus = "critical"
	SafetyNoPersonDetected SafetyStatus = "no_person_detected"
	SafetySystemError      SafetyStatus = "system_error"
)

// Violation labels
const (
	ViolationHardHat     = "Hard hat required"
	ViolationVest        = "Safety vest required"
	ViolationNoPerson    = "No person detected for safety assessment"
	ViolationSystemError = "Safety system error"
)

// SafetyResult is produced once per detection cycle, independent of face matching.
type SafetyResult struct {
	Status          SafetyStatus `json:"status"`
	Violations      []string     `json:"violations"`
	SafetyScore     float64      `json:"safety_score"`
	HasHelmet       bool         `json:"has_helmet"`
	HasVest         bool         `json:"has_vest"`
	PersonsDetected int          `json:"persons_detected"`
	IdentityID      string       `json:"identity_id"`
	CameraID        string       `json:"camera_id"`
	Timestamp       time.Time    `json:"timestamp"`
}

// HasViolations reports whether the result carries at least one violation label.
func (r SafetyResult) HasViolations() bool {
	return len(r.Violations) > 0
}

// SafetyEvent is the persisted form of a SafetyResult.
type SafetyEvent struct {
	ID             uuid.UUID    `json:"id"`
	EmployeeID     string       `json:"employee_id"`
	Status         SafetyStatus `json:"safety_status"`
	Violations     []string     `json:"violations"`
	ViolationCount int          `json:"violation_count"`
	SafetyScore    float64      `json:"safety_score"`
	CameraID       string       `json:"camera_id"`
	CreatedAt      time.Time    `json:"created_at"`
}

type AlertPriority string

const (
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityHigh   AlertPriority = "high"
)

// Alert is raised for a safety event that carries violations.
type Alert struct {
	ID         uuid.UUID     `json:"id"`
	EmployeeID string        `json:"employee_id"`
	Type       string        `json:"type"`
	Message    string        `json:"message"`
	Priority   AlertPriority `json:"priority"`
	CreatedAt  time.Time     `json:"created_at"`
}
