package deepface

import "errors"

var (
	// ErrDeepFaceUnavailable wraps transport failures and 5xx answers after retries
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	// ErrInvalidResponse is a body that does not decode; it is never retried
	ErrInvalidResponse = errors.New("invalid response from deepface")
	// ErrInvalidImage rejects empty frames before any request is made
	ErrInvalidImage = errors.New("invalid image for deepface")
)
