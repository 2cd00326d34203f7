package models

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/config"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/rekognition"
)

// ProviderType defines supported model backends
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace HTTP service (face embeddings)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is AWS Rekognition (PPE)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process backend for development
	ProviderTypeMock ProviderType = "mock"
)

// Models bundles the two inference backends and their combined readiness
type Models struct {
	Face      provider.FaceModel
	Safety    provider.SafetyModel
	Readiness provider.ReadinessChecker
}

// New builds both models from configuration.
//
// Environment variables:
//   - FACE_PROVIDER: "deepface" or "mock" (default: "deepface")
//   - SAFETY_PROVIDER: "rekognition" or "mock" (default: "rekognition")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR, MODEL_TIMEOUT
//   - AWS_REGION, PPE_MIN_CONFIDENCE, plus the AWS SDK credential chain
func New(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (*Models, error) {
	faceModel, faceReady, err := NewFaceModel(cfg)
	if err != nil {
		return nil, err
	}

	safetyModel, safetyReady, err := NewSafetyModel(ctx, cfg, auditLogger)
	if err != nil {
		return nil, err
	}

	return &Models{
		Face:      faceModel,
		Safety:    safetyModel,
		Readiness: provider.ReadinessGroup{faceReady, safetyReady},
	}, nil
}

// NewFaceModel creates the face detector/embedder selected by FACE_PROVIDER
func NewFaceModel(cfg *config.Config) (provider.FaceModel, provider.ReadinessChecker, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeDeepFace, "":
		p := createDeepFaceProvider(cfg)
		return p, p, nil

	case ProviderTypeMock:
		p := mock.New()
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("unknown face provider type: %s (supported: %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

// NewSafetyModel creates the PPE classifier selected by SAFETY_PROVIDER
func NewSafetyModel(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.SafetyModel, provider.ReadinessChecker, error) {
	switch ProviderType(cfg.SafetyProvider) {
	case ProviderTypeRekognition, "":
		rekogConfig := rekognition.Config{
			Region:        cfg.AWSRegion,
			MinConfidence: cfg.PPEMinConfidence,
		}

		var opts []rekognition.ProviderOption
		if auditLogger != nil {
			opts = append(opts, rekognition.WithAuditLogger(auditLogger))
		}

		p, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return p, p, nil

	case ProviderTypeMock:
		return mock.NewSafety(), provider.AlwaysReady{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown safety provider type: %s (supported: %s, %s)",
			cfg.SafetyProvider, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	dfConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		dfConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.ModelTimeout > 0 {
		dfConfig.Timeout = cfg.ModelTimeout
	}

	return deepface.NewProvider(dfConfig)
}
