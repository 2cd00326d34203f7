package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

// FaceModel detects every face in a frame and returns one embedding per face
type FaceModel interface {
	// DetectAndEmbed returns an empty slice when the frame has no faces
	DetectAndEmbed(ctx context.Context, frame []byte) ([]FaceDescriptor, error)
}

// SafetyModel runs PPE detection on a frame
type SafetyModel interface {
	Classify(ctx context.Context, frame []byte) (PPEDetection, error)
}

// ReadinessChecker reports whether a model backend can serve requests.
// Ready returns nil once the backend is usable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// FaceDescriptor is one detected face and its embedding
type FaceDescriptor struct {
	Embedding   []float64          `json:"embedding"`
	BoundingBox domain.BoundingBox `json:"bounding_box"`
	Confidence  float64            `json:"confidence"`
}

// PPEDetection is the raw classifier output before status aggregation
type PPEDetection struct {
	PersonsDetected   int      `json:"persons_detected"`
	PersonsWithHelmet int      `json:"persons_with_helmet"`
	PersonsWithVest   int      `json:"persons_with_vest"`
	Labels            []string `json:"labels,omitempty"`
}

// HasHelmet is true when every detected person wears head cover.
func (d PPEDetection) HasHelmet() bool {
	return d.PersonsDetected > 0 && d.PersonsWithHelmet >= d.PersonsDetected
}

// HasVest is true when every detected person wears body cover.
func (d PPEDetection) HasVest() bool {
	return d.PersonsDetected > 0 && d.PersonsWithVest >= d.PersonsDetected
}

// AlwaysReady is a ReadinessChecker for backends with nothing to load
type AlwaysReady struct{}

func (AlwaysReady) Ready(context.Context) error { return nil }

// ReadinessGroup is ready only when every member is ready
type ReadinessGroup []ReadinessChecker

func (g ReadinessGroup) Ready(ctx context.Context) error {
	for _, c := range g {
		if err := c.Ready(ctx); err != nil {
			return err
		}
	}
	return nil
}
