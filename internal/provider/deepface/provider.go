package deepface

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
)

// Provider implements provider.FaceModel using the DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectAndEmbed sends the frame to /represent and returns one descriptor per face
func (p *Provider) DetectAndEmbed(ctx context.Context, frame []byte) ([]provider.FaceDescriptor, error) {
	if len(frame) == 0 {
		return nil, ErrInvalidImage
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.FaceDescriptor, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) == 0 {
			continue
		}
		faces = append(faces, provider.FaceDescriptor{
			Embedding: result.Embedding,
			BoundingBox: domain.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: result.FaceConfidence,
		})
	}

	return faces, nil
}

// Ready reports whether the DeepFace service answers its health endpoint
func (p *Provider) Ready(ctx context.Context) error {
	return p.client.Health(ctx)
}

var (
	_ provider.FaceModel        = (*Provider)(nil)
	_ provider.ReadinessChecker = (*Provider)(nil)
)
