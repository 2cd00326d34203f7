package safety

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

const (
	defaultRepeatInterval = 30 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// EventStore persists safety events and the alerts raised for them
type EventStore interface {
	SaveSafetyEvent(ctx context.Context, ev *domain.SafetyEvent) error
	CreateAlert(ctx context.Context, alert *domain.Alert) error
}

// Notifier pushes alerts to an external receiver
type Notifier interface {
	NotifyAlert(ctx context.Context, alert domain.Alert, result domain.SafetyResult) error
}

// Recorder is a safety subscriber that persists results and raises alerts.
// An unchanged result is persisted again only after the repeat interval,
// so a steady scene does not write one row per detection cycle.
type Recorder struct {
	store          EventStore
	notifier       Notifier
	auditLogger    audit.Logger
	logger         *slog.Logger
	repeatInterval time.Duration
	timeout        time.Duration
	now            func() time.Time

	mu       sync.Mutex
	lastKey  string
	lastSave time.Time
}

// RecorderOption defines optional configuration for Recorder
type RecorderOption func(*Recorder)

func WithNotifier(n Notifier) RecorderOption {
	return func(r *Recorder) {
		r.notifier = n
	}
}

func WithAuditLogger(l audit.Logger) RecorderOption {
	return func(r *Recorder) {
		r.auditLogger = l
	}
}

// WithRepeatInterval sets how often an unchanged result is persisted again.
// Zero persists every result.
func WithRepeatInterval(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d >= 0 {
			r.repeatInterval = d
		}
	}
}

func NewRecorder(store EventStore, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:          store,
		auditLogger:    &audit.NoOpLogger{},
		logger:         logger.With("component", "safety_recorder"),
		repeatInterval: defaultRepeatInterval,
		timeout:        defaultWriteTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle is meant to be registered with Broadcaster.SubscribeSafety
func (r *Recorder) Handle(res domain.SafetyResult) {
	if !r.shouldPersist(res) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.Record(ctx, res); err != nil {
		r.logger.Error("failed to record safety result",
			slog.String("status", string(res.Status)),
			slog.Any("error", err),
		)
	}
}

func (r *Recorder) shouldPersist(res domain.SafetyResult) bool {
	key := string(res.Status) + "|" + res.IdentityID + "|" + strings.Join(res.Violations, ",")
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if key == r.lastKey && now.Sub(r.lastSave) < r.repeatInterval {
		return false
	}
	r.lastKey = key
	r.lastSave = now
	return true
}

// Record saves the event and, for PPE violations, an alert
func (r *Recorder) Record(ctx context.Context, res domain.SafetyResult) error {
	employeeID := res.IdentityID
	if employeeID == "" {
		employeeID = domain.SystemIdentityID
	}

	ev := &domain.SafetyEvent{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		Status:         res.Status,
		Violations:     slices.Clone(res.Violations),
		ViolationCount: len(res.Violations),
		SafetyScore:    res.SafetyScore,
		CameraID:       res.CameraID,
		CreatedAt:      res.Timestamp,
	}
	if ev.Violations == nil {
		ev.Violations = []string{}
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}

	if err := r.store.SaveSafetyEvent(ctx, ev); err != nil {
		return fmt.Errorf("save safety event: %w", err)
	}

	if !raisesAlert(res.Status) {
		return nil
	}

	alert := domain.Alert{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Type:       "safety_violation",
		Message:    "Safety violations detected: " + strings.Join(res.Violations, ", "),
		Priority:   alertPriority(res.Status),
		CreatedAt:  ev.CreatedAt,
	}
	if err := r.store.CreateAlert(ctx, &alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	_ = r.auditLogger.Log(ctx, audit.Event{
		EventType:  audit.EventSafetyViolation,
		IdentityID: employeeID,
		CameraID:   res.CameraID,
		Source:     "safety",
		Success:    true,
		Metadata: map[string]string{
			"status":     string(res.Status),
			"violations": strings.Join(res.Violations, ", "),
		},
	})

	if r.notifier != nil {
		if err := r.notifier.NotifyAlert(ctx, alert, res); err != nil {
			r.logger.Warn("alert notification failed",
				slog.String("alert_id", alert.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

func raisesAlert(s domain.SafetyStatus) bool {
	switch s {
	case domain.SafetyMinorViolation, domain.SafetyMajorViolation, domain.SafetyCritical:
		return true
	}
	return false
}

func alertPriority(s domain.SafetyStatus) domain.AlertPriority {
	if s == domain.SafetyMinorViolation {
		return domain.AlertPriorityMedium
	}
	return domain.AlertPriorityHigh
}
