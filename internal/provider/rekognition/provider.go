package rekognition

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	maxLabels = 50

	LabelFaceCover = "Face cover required"
	LabelHandCover = "Gloves required"
)

// vestLabels are the DetectLabels names counted as high-visibility vests
var vestLabels = []string{"Vest", "Safety Vest", "Reflective Vest", "Lifejacket"}

// Provider implements provider.SafetyModel using AWS Rekognition
type Provider struct {
	api         RekognitionAPI
	config      Config
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var (
	_ provider.SafetyModel      = (*Provider)(nil)
	_ provider.ReadinessChecker = (*Provider)(nil)
)

// NewProvider creates a Rekognition PPE classifier backed by the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client, cfg, opts...), nil
}

// NewProviderWithAPI creates a provider around an existing API client
func NewProviderWithAPI(api RekognitionAPI, cfg Config, opts ...ProviderOption) *Provider {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}
	p := &Provider{
		api:    api,
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready always succeeds, Rekognition has no model warm-up
func (p *Provider) Ready(context.Context) error {
	return nil
}

// logAudit records a failed classification; audit failure does not affect the operation
func (p *Provider) logAudit(ctx context.Context, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	_ = p.auditLogger.Log(ctx, audit.Event{
		EventType: audit.EventSafetyClassifyFailed,
		Source:    "rekognition",
		Success:   false,
		Error:     err.Error(),
		Metadata:  metadata,
	})
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// Classify counts persons and their protective equipment in the frame
func (p *Provider) Classify(ctx context.Context, frame []byte) (provider.PPEDetection, error) {
	if err := validateImage(frame); err != nil {
		p.logAudit(ctx, err, map[string]string{"image_size": strconv.Itoa(len(frame))})
		return provider.PPEDetection{}, err
	}

	ppe, err := p.api.DetectProtectiveEquipment(ctx, &rekognition.DetectProtectiveEquipmentInput{
		Image: &types.Image{Bytes: frame},
	})
	if err != nil {
		err = translateError("detect protective equipment", err)
		p.logAudit(ctx, err, nil)
		return provider.PPEDetection{}, err
	}

	det := p.countEquipment(ppe.Persons)
	if det.PersonsDetected == 0 {
		return det, nil
	}

	labels, err := p.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: frame},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(p.config.MinConfidence),
	})
	if err != nil {
		err = translateError("detect labels", err)
		p.logAudit(ctx, err, nil)
		return provider.PPEDetection{}, err
	}

	det.PersonsWithVest = min(countVests(labels.Labels), det.PersonsDetected)
	return det, nil
}

func (p *Provider) countEquipment(persons []types.ProtectiveEquipmentPerson) provider.PPEDetection {
	var det provider.PPEDetection
	missingFace, missingHand := false, false

	for _, person := range persons {
		det.PersonsDetected++

		var head, face, hand bool
		for _, part := range person.BodyParts {
			switch part.Name {
			case types.BodyPartHead:
				head = head || p.covered(part, types.ProtectiveEquipmentTypeHeadCover)
			case types.BodyPartFace:
				face = face || p.covered(part, types.ProtectiveEquipmentTypeFaceCover)
			case types.BodyPartLeftHand, types.BodyPartRightHand:
				hand = hand || p.covered(part, types.ProtectiveEquipmentTypeHandCover)
			}
		}

		if head {
			det.PersonsWithHelmet++
		}
		missingFace = missingFace || !face
		missingHand = missingHand || !hand
	}

	if det.PersonsDetected > 0 {
		if p.config.RequireFaceCover && missingFace {
			det.Labels = append(det.Labels, LabelFaceCover)
		}
		if p.config.RequireHandCover && missingHand {
			det.Labels = append(det.Labels, LabelHandCover)
		}
	}
	return det
}

// covered reports whether the body part carries equipment of the given type that covers it
func (p *Provider) covered(part types.ProtectiveEquipmentBodyPart, want types.ProtectiveEquipmentType) bool {
	for _, eq := range part.EquipmentDetections {
		if eq.Type != want || aws.ToFloat32(eq.Confidence) < p.config.MinConfidence {
			continue
		}
		if eq.CoversBodyPart != nil && eq.CoversBodyPart.Value {
			return true
		}
	}
	return false
}

func countVests(labels []types.Label) int {
	n := 0
	for _, l := range labels {
		if !isVestLabel(aws.ToString(l.Name)) {
			continue
		}
		if len(l.Instances) == 0 {
			n++
			continue
		}
		n += len(l.Instances)
	}
	return n
}

func isVestLabel(name string) bool {
	for _, v := range vestLabels {
		if strings.EqualFold(name, v) {
			return true
		}
	}
	return false
}
