package webhook

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_KnownVector(t *testing.T) {
	got := Sign("my-secret-key", []byte(`{"type":"safety.alert"}`))
	assert.Equal(t, "sha256=c9d69e74dc0d5af95a05d329d2d78ebf47f96e78faaa81a61f0c3af6109344b5", got)
}

func TestVerify_AlertPayload(t *testing.T) {
	const secret = "receiver-secret"

	body, err := json.Marshal(EventPayload{
		ID:   uuid.New(),
		Type: EventSafetyAlert,
		Data: AlertData{
			EmployeeID: "E001",
			Priority:   "high",
			Violations: []string{"Hard hat required"},
			CameraID:   "gate-1",
		},
		Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	signature := Sign(secret, body)

	tampered := strings.Replace(string(body), "E001", "E002", 1)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		want      bool
	}{
		{"untouched", secret, body, signature, true},
		{"wrong secret", "other-secret", body, signature, false},
		{"tampered body", secret, []byte(tampered), signature, false},
		{"missing prefix", secret, body, strings.TrimPrefix(signature, signaturePrefix), false},
		{"empty signature", secret, body, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.secret, tt.payload, tt.signature))
		})
	}
}
