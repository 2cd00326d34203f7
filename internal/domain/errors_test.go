package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrLoopRunning,
			expected: "Detection is already running",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	newErr := ErrCameraUnavailable.WithError(underlying)

	if newErr.Code != ErrCameraUnavailable.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrCameraUnavailable.Code)
	}

	if newErr.StatusCode != ErrCameraUnavailable.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrCameraUnavailable.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if !errors.Is(newErr, ErrCameraUnavailable) {
		t.Errorf("errors.Is should match the predefined error by code")
	}

	wrapped := fmt.Errorf("start detection: %w", newErr)
	if !errors.Is(wrapped, ErrCameraUnavailable) {
		t.Errorf("errors.Is should see through fmt wrapping")
	}

	if errors.Is(newErr, ErrModelsNotReady) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestUnknownFace(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	box := BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}

	ev := UnknownFace(box, "cam-1", ts)

	if ev.IdentityID != UnknownIdentityID || ev.DisplayName != UnknownDisplayName {
		t.Errorf("unexpected identity %q/%q", ev.IdentityID, ev.DisplayName)
	}
	if ev.Confidence != 0 || ev.Known || ev.NewCredit {
		t.Errorf("unknown face must carry zero confidence and no credit: %+v", ev)
	}
	if ev.BoundingBox != box || ev.CameraID != "cam-1" || !ev.Timestamp.Equal(ts) {
		t.Errorf("unexpected event fields: %+v", ev)
	}
}

func TestSafetyResult_HasViolations(t *testing.T) {
	if (SafetyResult{Status: SafetyCompliant}).HasViolations() {
		t.Error("compliant result should have no violations")
	}
	if !(SafetyResult{Violations: []string{ViolationVest}}).HasViolations() {
		t.Error("result with a label should report violations")
	}
}
