package attendance

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
)

const (
	defaultRecordTimeout = 5 * time.Second
	defaultTouchInterval = time.Minute
)

// Store persists attendance. The detection core only decides whether to credit.
type Store interface {
	RecordAttendance(ctx context.Context, identityID string, confidence float64, ts time.Time) error
	// TouchAttendance moves the day's check-out time to ts. It never creates a row.
	TouchAttendance(ctx context.Context, identityID string, confidence float64, ts time.Time) error
	HasAttendanceToday(ctx context.Context, identityID string, day time.Time) (bool, error)
}

// Trigger issues at most one attendance credit per identity per day
type Trigger struct {
	set         *DailySet
	store       Store
	logger      *slog.Logger
	auditLogger audit.Logger
	timeout     time.Duration

	touchInterval time.Duration
	touchMu       sync.Mutex
	touchDay      string
	lastTouch     map[string]time.Time

	wg sync.WaitGroup
}

// TriggerOption defines optional configuration for Trigger
type TriggerOption func(*Trigger)

func WithAuditLogger(l audit.Logger) TriggerOption {
	return func(t *Trigger) {
		t.auditLogger = l
	}
}

// WithRecordTimeout bounds each asynchronous persistence call
func WithRecordTimeout(d time.Duration) TriggerOption {
	return func(t *Trigger) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithTouchInterval sets how often an already credited identity may update
// its check-out time. d <= 0 disables check-out tracking.
func WithTouchInterval(d time.Duration) TriggerOption {
	return func(t *Trigger) {
		t.touchInterval = d
	}
}

func NewTrigger(set *DailySet, store Store, logger *slog.Logger, opts ...TriggerOption) *Trigger {
	t := &Trigger{
		set:         set,
		store:       store,
		logger:      logger.With("component", "attendance"),
		auditLogger: &audit.NoOpLogger{},
		timeout:     defaultRecordTimeout,

		touchInterval: defaultTouchInterval,
		lastTouch:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Set exposes the dedup set shared by every session using this trigger
func (t *Trigger) Set() *DailySet {
	return t.set
}

// Credit claims today's credit for identityID and, when the claim succeeds,
// persists it in the background. A failed write is logged and the claim stands.
// A detection of an identity already credited today only refreshes its
// check-out time, at most once per touch interval, and returns false.
func (t *Trigger) Credit(identityID, cameraID string, confidence float64, ts time.Time) bool {
	if !t.set.TryAdd(identityID) {
		if t.dueTouch(identityID, ts) {
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.touch(identityID, confidence, ts)
			}()
		}
		return false
	}

	t.markTouched(identityID, ts)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.record(identityID, cameraID, confidence, ts)
	}()

	return true
}

func (t *Trigger) record(identityID, cameraID string, confidence float64, ts time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	event := audit.Event{
		EventType:  audit.EventAttendanceCredited,
		IdentityID: identityID,
		CameraID:   cameraID,
		Source:     "attendance",
		Success:    true,
		Metadata: map[string]string{
			"confidence": strconv.FormatFloat(confidence, 'f', 4, 64),
		},
	}

	if err := t.store.RecordAttendance(ctx, identityID, confidence, ts); err != nil {
		t.logger.Error("failed to record attendance",
			slog.String("identity_id", identityID),
			slog.Float64("confidence", confidence),
			slog.Any("error", err),
		)
		event.EventType = audit.EventAttendanceFailed
		event.Success = false
		event.Error = err.Error()
	} else {
		t.logger.Info("attendance recorded",
			slog.String("identity_id", identityID),
			slog.Float64("confidence", confidence),
		)
	}

	_ = t.auditLogger.Log(ctx, event)
}

// dueTouch claims the identity's next check-out update when the interval has passed
func (t *Trigger) dueTouch(identityID string, ts time.Time) bool {
	if t.touchInterval <= 0 {
		return false
	}

	t.touchMu.Lock()
	defer t.touchMu.Unlock()

	t.rotateTouchesLocked(ts)
	if last, ok := t.lastTouch[identityID]; ok && ts.Sub(last) < t.touchInterval {
		return false
	}
	t.lastTouch[identityID] = ts
	return true
}

func (t *Trigger) markTouched(identityID string, ts time.Time) {
	t.touchMu.Lock()
	defer t.touchMu.Unlock()

	t.rotateTouchesLocked(ts)
	t.lastTouch[identityID] = ts
}

func (t *Trigger) rotateTouchesLocked(ts time.Time) {
	if day := DayKey(ts); day != t.touchDay {
		t.touchDay = day
		clear(t.lastTouch)
	}
}

func (t *Trigger) touch(identityID string, confidence float64, ts time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.store.TouchAttendance(ctx, identityID, confidence, ts); err != nil {
		t.logger.Warn("failed to update check-out time",
			slog.String("identity_id", identityID),
			slog.Any("error", err),
		)
		return
	}
	t.logger.Debug("check-out time updated", slog.String("identity_id", identityID))
}

// Warm seeds the dedup set from persisted attendance for the given identities.
// Lookup failures are logged and skipped; the store keeps one row per day anyway.
func (t *Trigger) Warm(ctx context.Context, identityIDs []string) int {
	day := t.set.now()
	credited := make([]string, 0, len(identityIDs))

	for _, id := range identityIDs {
		if ctx.Err() != nil {
			break
		}
		ok, err := t.store.HasAttendanceToday(ctx, id, day)
		if err != nil {
			t.logger.Warn("attendance warm-up lookup failed",
				slog.String("identity_id", id),
				slog.Any("error", err),
			)
			continue
		}
		if ok {
			credited = append(credited, id)
		}
	}

	seeded := t.set.Seed(day, credited...)
	t.logger.Info("attendance set seeded",
		slog.Int("seeded", seeded),
		slog.Int("checked", len(identityIDs)),
		slog.String("day", DayKey(day)),
	)
	return seeded
}

// Wait blocks until in-flight persistence calls return
func (t *Trigger) Wait() {
	t.wg.Wait()
}
