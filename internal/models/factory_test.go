package models

import (
	"context"
	"testing"

	"github.com/saturnino-fabrica-de-software/workforce/internal/config"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider/rekognition"
)

func TestNewFaceModel(t *testing.T) {
	tests := []struct {
		name         string
		faceProvider string
		wantType     string
	}{
		{
			name:         "explicit deepface provider",
			faceProvider: "deepface",
			wantType:     "*deepface.Provider",
		},
		{
			name:         "empty provider defaults to deepface",
			faceProvider: "",
			wantType:     "*deepface.Provider",
		},
		{
			name:         "mock provider",
			faceProvider: "mock",
			wantType:     "*mock.Provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				FaceProvider: tt.faceProvider,
				DeepFaceURL:  "http://localhost:5005",
			}

			model, ready, err := NewFaceModel(cfg)
			if err != nil {
				t.Fatalf("NewFaceModel() error = %v", err)
			}
			if ready == nil {
				t.Fatal("NewFaceModel() returned nil readiness checker")
			}

			switch tt.wantType {
			case "*deepface.Provider":
				if _, ok := model.(*deepface.Provider); !ok {
					t.Errorf("NewFaceModel() returned type %T, want %s", model, tt.wantType)
				}
			case "*mock.Provider":
				if _, ok := model.(*mock.Provider); !ok {
					t.Errorf("NewFaceModel() returned type %T, want %s", model, tt.wantType)
				}
			}
		})
	}
}

func TestNewSafetyModel_Mock(t *testing.T) {
	model, ready, err := NewSafetyModel(context.Background(), &config.Config{SafetyProvider: "mock"}, nil)
	if err != nil {
		t.Fatalf("NewSafetyModel() error = %v", err)
	}
	if _, ok := model.(*mock.Safety); !ok {
		t.Errorf("NewSafetyModel() returned type %T, want *mock.Safety", model)
	}
	if _, ok := ready.(provider.AlwaysReady); !ok {
		t.Errorf("NewSafetyModel() readiness type %T, want provider.AlwaysReady", ready)
	}
}

func TestNewSafetyModel_Rekognition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Rekognition test in short mode (loads AWS config)")
	}

	cfg := &config.Config{
		SafetyProvider:   "rekognition",
		AWSRegion:        "us-east-1",
		PPEMinConfidence: 75,
	}

	model, _, err := NewSafetyModel(context.Background(), cfg, nil)
	if err != nil {
		t.Skipf("Skipping Rekognition test (AWS config unavailable): %v", err)
	}

	if _, ok := model.(*rekognition.Provider); !ok {
		t.Errorf("NewSafetyModel() returned type %T, want *rekognition.Provider", model)
	}
}

func TestNew_UnknownProviders(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "face",
			cfg:  &config.Config{FaceProvider: "opencv", SafetyProvider: "mock"},
			want: "unknown face provider type: opencv",
		},
		{
			name: "safety",
			cfg:  &config.Config{FaceProvider: "mock", SafetyProvider: "yolo"},
			want: "unknown safety provider type: yolo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, tt.cfg, nil)
			if err == nil {
				t.Fatal("New() expected error for unknown provider, got nil")
			}
			if len(err.Error()) < len(tt.want) || err.Error()[:len(tt.want)] != tt.want {
				t.Errorf("New() error = %v, want prefix %q", err, tt.want)
			}
		})
	}
}

func TestNew_MockModelsAreReady(t *testing.T) {
	m, err := New(context.Background(), &config.Config{FaceProvider: "mock", SafetyProvider: "mock"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.Readiness.Ready(context.Background()); err != nil {
		t.Errorf("Ready() = %v, want nil", err)
	}
}

func TestProviderType_Constants(t *testing.T) {
	if ProviderTypeDeepFace != "deepface" {
		t.Errorf("ProviderTypeDeepFace = %q, want %q", ProviderTypeDeepFace, "deepface")
	}
	if ProviderTypeRekognition != "rekognition" {
		t.Errorf("ProviderTypeRekognition = %q, want %q", ProviderTypeRekognition, "rekognition")
	}
	if ProviderTypeMock != "mock" {
		t.Errorf("ProviderTypeMock = %q, want %q", ProviderTypeMock, "mock")
	}
}
