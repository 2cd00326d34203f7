package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches AppErrors by code so wrapped copies created with WithError
// still satisfy errors.Is against the predefined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Detection loop errors
	ErrLoopRunning = &AppError{
		Code:       "DETECTION_RUNNING",
		Message:    "Detection is already running",
		StatusCode: 409,
	}

	ErrLoopNotRunning = &AppError{
		Code:       "DETECTION_NOT_RUNNING",
		Message:    "Detection is not running",
		StatusCode: 409,
	}

	ErrCameraUnavailable = &AppError{
		Code:       "CAMERA_UNAVAILABLE",
		Message:    "Video source could not be opened",
		StatusCode: 503,
	}

	ErrModelsNotReady = &AppError{
		Code:       "MODELS_NOT_READY",
		Message:    "Detection models did not become ready in time",
		StatusCode: 503,
	}

	// Gallery errors
	ErrGalleryReload = &AppError{
		Code:       "GALLERY_RELOAD_FAILED",
		Message:    "Gallery reload failed, previous gallery retained",
		StatusCode: 502,
	}

	ErrEmployeeNotFound = &AppError{
		Code:       "EMPLOYEE_NOT_FOUND",
		Message:    "Employee not found",
		StatusCode: 404,
	}
)
