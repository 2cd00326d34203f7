package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/safety"
)

const defaultTimeout = 10 * time.Second

var (
	ErrMissingURL    = errors.New("webhook url is required")
	ErrMissingSecret = errors.New("webhook secret is required")
)

var _ safety.Notifier = (*Notifier)(nil)

// Notifier POSTs safety alerts to a single receiver. Delivery is best effort:
// a failed POST is returned to the caller and never queued for retry.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// Option defines optional configuration for Notifier
type Option func(*Notifier)

func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

func NewNotifier(url, secret string, logger *slog.Logger, opts ...Option) (*Notifier, error) {
	if url == "" {
		return nil, ErrMissingURL
	}
	if secret == "" {
		return nil, ErrMissingSecret
	}

	n := &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.With("component", "webhook"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Notifier) NotifyAlert(ctx context.Context, alert domain.Alert, result domain.SafetyResult) error {
	event := EventPayload{
		ID:   uuid.New(),
		Type: EventSafetyAlert,
		Data: AlertData{
			AlertID:         alert.ID,
			EmployeeID:      alert.EmployeeID,
			Priority:        string(alert.Priority),
			Message:         alert.Message,
			Status:          string(result.Status),
			Violations:      result.Violations,
			SafetyScore:     result.SafetyScore,
			PersonsDetected: result.PersonsDetected,
			CameraID:        result.CameraID,
			DetectedAt:      result.Timestamp,
		},
		Timestamp: n.now().UTC(),
	}
	if event.Data.Violations == nil {
		event.Data.Violations = []string{}
	}

	return n.Send(ctx, event)
}

// Send signs and POSTs a single event
func (n *Notifier) Send(ctx context.Context, event EventPayload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(n.secret, payload))
	req.Header.Set(EventHeader, event.Type)
	req.Header.Set("User-Agent", "Workforce-Webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook receiver returned HTTP %d", resp.StatusCode)
	}

	n.logger.Debug("webhook delivered",
		slog.String("event_id", event.ID.String()),
		slog.String("type", event.Type),
	)
	return nil
}
