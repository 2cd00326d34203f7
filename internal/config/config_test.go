package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all required vars",
			envVars: map[string]string{
				"PORT":            "8080",
				"ENV":             "production",
				"DATABASE_URL":    "postgres://localhost/test",
				"FACE_PROVIDER":   "mock",
				"SAFETY_PROVIDER": "mock",
				"MATCH_THRESHOLD": "0.5",
				"CYCLE_INTERVAL":  "250ms",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.DatabaseURL == "postgres://localhost/test" &&
					c.FaceProvider == "mock" &&
					c.SafetyProvider == "mock" &&
					c.MatchThreshold == 0.5 &&
					c.CycleInterval == 250*time.Millisecond
			},
		},
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://localhost/test",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.FaceProvider == "deepface" &&
					c.SafetyProvider == "rekognition" &&
					c.MatchThreshold == 0.6 &&
					c.CycleInterval == 100*time.Millisecond &&
					c.ReadinessTimeout == 2*time.Minute &&
					c.SafetyRepeatInterval == 30*time.Second &&
					c.PPEMinConfidence == 80 &&
					c.DBMaxConns == 10 &&
					c.DeepFaceModel == "Dlib" &&
					c.AttendanceTouch == time.Minute &&
					!c.MigrateOnStart
			},
		},
		{
			name:    "fails when DATABASE_URL missing",
			envVars: map[string]string{},
			wantErr: true,
			check:   nil,
		},
		{
			name: "fails on unknown face provider",
			envVars: map[string]string{
				"DATABASE_URL":  "postgres://localhost/test",
				"FACE_PROVIDER": "opencv",
			},
			wantErr: true,
		},
		{
			name: "fails on non-positive threshold",
			envVars: map[string]string{
				"DATABASE_URL":    "postgres://localhost/test",
				"MATCH_THRESHOLD": "0",
			},
			wantErr: true,
		},
		{
			name: "fails when threshold does not fit the model scale",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://localhost/test",
				"DEEPFACE_MODEL": "Facenet",
			},
			wantErr: true,
		},
		{
			name: "accepts threshold on the model scale",
			envVars: map[string]string{
				"DATABASE_URL":    "postgres://localhost/test",
				"DEEPFACE_MODEL":  "Facenet512",
				"MATCH_THRESHOLD": "23.56",
			},
			check: func(c *Config) bool {
				return c.DeepFaceModel == "Facenet512" && c.MatchThreshold == 23.56
			},
		},
		{
			name: "accepts unknown model with any threshold",
			envVars: map[string]string{
				"DATABASE_URL":    "postgres://localhost/test",
				"DEEPFACE_MODEL":  "CustomNet",
				"MATCH_THRESHOLD": "100",
			},
			check: func(c *Config) bool {
				return c.MatchThreshold == 100
			},
		},
		{
			name: "mock face provider skips the model scale check",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://localhost/test",
				"FACE_PROVIDER":  "mock",
				"DEEPFACE_MODEL": "Facenet",
			},
			check: func(c *Config) bool {
				return c.MatchThreshold == 0.6
			},
		},
		{
			name: "fails on zero pool size",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://localhost/test",
				"DB_MAX_CONNS": "0",
			},
			wantErr: true,
		},
		{
			name: "fails when webhook secret missing",
			envVars: map[string]string{
				"DATABASE_URL":      "postgres://localhost/test",
				"ALERT_WEBHOOK_URL": "https://hooks.example.com/alerts",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
