package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns     int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"false"`

	// Face model
	FaceProvider     string        `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"opencv"`
	ModelTimeout     time.Duration `envconfig:"MODEL_TIMEOUT" default:"5s"`

	// Safety model
	SafetyProvider   string  `envconfig:"SAFETY_PROVIDER" default:"rekognition"`
	AWSRegion        string  `envconfig:"AWS_REGION" default:"us-east-1"`
	PPEMinConfidence float32 `envconfig:"PPE_MIN_CONFIDENCE" default:"80"`

	// Detection loop
	MatchThreshold        float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	CycleInterval         time.Duration `envconfig:"CYCLE_INTERVAL" default:"100ms"`
	ReadinessPollInterval time.Duration `envconfig:"READINESS_POLL_INTERVAL" default:"2s"`
	ReadinessTimeout      time.Duration `envconfig:"READINESS_TIMEOUT" default:"2m"`
	FrameMaxSize          int           `envconfig:"FRAME_MAX_SIZE" default:"640"`
	AttendanceTimeout     time.Duration `envconfig:"ATTENDANCE_WRITE_TIMEOUT" default:"5s"`
	AttendanceTouch       time.Duration `envconfig:"ATTENDANCE_TOUCH_INTERVAL" default:"1m"`

	// Safety recording and alerts
	SafetyRepeatInterval time.Duration `envconfig:"SAFETY_REPEAT_INTERVAL" default:"30s"`
	AlertWebhookURL      string        `envconfig:"ALERT_WEBHOOK_URL"`
	AlertWebhookSecret   string        `envconfig:"ALERT_WEBHOOK_SECRET"`
}

// deepFaceThresholds are DeepFace's reference Euclidean distances per model.
// MATCH_THRESHOLD is compared against raw Euclidean distance, so its scale
// must follow the model's.
var deepFaceThresholds = map[string]float64{
	"VGG-Face":     1.17,
	"Facenet":      10,
	"Facenet512":   23.56,
	"OpenFace":     0.55,
	"DeepFace":     64,
	"DeepID":       45,
	"ArcFace":      4.15,
	"Dlib":         0.6,
	"SFace":        10.734,
	"GhostFaceNet": 35.71,
}

// thresholdTolerance bounds how far MATCH_THRESHOLD may sit from the model's
// reference distance, as a factor either way.
const thresholdTolerance = 4

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the detection loop cannot run with
func (c *Config) Validate() error {
	switch c.FaceProvider {
	case "deepface", "mock":
	default:
		return fmt.Errorf("unknown FACE_PROVIDER %q", c.FaceProvider)
	}
	switch c.SafetyProvider {
	case "rekognition", "mock":
	default:
		return fmt.Errorf("unknown SAFETY_PROVIDER %q", c.SafetyProvider)
	}
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.MatchThreshold)
	}
	if err := c.validateModelThreshold(); err != nil {
		return err
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL must be positive, got %s", c.CycleInterval)
	}
	if c.ReadinessPollInterval <= 0 || c.ReadinessTimeout <= 0 {
		return fmt.Errorf("readiness poll interval and timeout must be positive")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.AlertWebhookURL != "" && c.AlertWebhookSecret == "" {
		return fmt.Errorf("ALERT_WEBHOOK_SECRET is required when ALERT_WEBHOOK_URL is set")
	}
	return nil
}

// validateModelThreshold rejects a MATCH_THRESHOLD on the wrong scale for
// DEEPFACE_MODEL. Unknown models are accepted as configured.
func (c *Config) validateModelThreshold() error {
	if c.FaceProvider != "deepface" {
		return nil
	}
	ref, ok := deepFaceThresholds[c.DeepFaceModel]
	if !ok {
		return nil
	}
	if c.MatchThreshold < ref/thresholdTolerance || c.MatchThreshold > ref*thresholdTolerance {
		return fmt.Errorf("MATCH_THRESHOLD %v does not fit DEEPFACE_MODEL %s (reference distance %v)",
			c.MatchThreshold, c.DeepFaceModel, ref)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
