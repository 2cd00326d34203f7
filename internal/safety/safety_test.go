package safety

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name           string
		detection      provider.PPEDetection
		wantStatus     domain.SafetyStatus
		wantViolations []string
		wantScore      float64
	}{
		{
			name:           "no person",
			detection:      provider.PPEDetection{},
			wantStatus:     domain.SafetyNoPersonDetected,
			wantViolations: []string{domain.ViolationNoPerson},
			wantScore:      0.5,
		},
		{
			name:           "fully equipped",
			detection:      provider.PPEDetection{PersonsDetected: 2, PersonsWithHelmet: 2, PersonsWithVest: 2},
			wantStatus:     domain.SafetyCompliant,
			wantViolations: []string{},
			wantScore:      1.0,
		},
		{
			name:           "missing helmet",
			detection:      provider.PPEDetection{PersonsDetected: 1, PersonsWithVest: 1},
			wantStatus:     domain.SafetyMinorViolation,
			wantViolations: []string{domain.ViolationHardHat},
			wantScore:      0.7,
		},
		{
			name:           "one of two without vest",
			detection:      provider.PPEDetection{PersonsDetected: 2, PersonsWithHelmet: 2, PersonsWithVest: 1},
			wantStatus:     domain.SafetyMinorViolation,
			wantViolations: []string{domain.ViolationVest},
			wantScore:      0.7,
		},
		{
			name:           "missing both",
			detection:      provider.PPEDetection{PersonsDetected: 1},
			wantStatus:     domain.SafetyMajorViolation,
			wantViolations: []string{domain.ViolationHardHat, domain.ViolationVest},
			wantScore:      0.4,
		},
		{
			name:           "extra classifier label is critical",
			detection:      provider.PPEDetection{PersonsDetected: 1, Labels: []string{"Face mask required"}},
			wantStatus:     domain.SafetyCritical,
			wantViolations: []string{domain.ViolationHardHat, domain.ViolationVest, "Face mask required"},
			wantScore:      0.1,
		},
		{
			name: "duplicate labels collapse",
			detection: provider.PPEDetection{
				PersonsDetected: 1, PersonsWithVest: 1,
				Labels: []string{domain.ViolationHardHat},
			},
			wantStatus:     domain.SafetyMinorViolation,
			wantViolations: []string{domain.ViolationHardHat},
			wantScore:      0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.detection)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantViolations, got.Violations)
			assert.InDelta(t, tt.wantScore, got.SafetyScore, 1e-9)
		})
	}
}

func TestSystemError(t *testing.T) {
	got := SystemError()
	assert.Equal(t, domain.SafetySystemError, got.Status)
	assert.Equal(t, []string{domain.ViolationSystemError}, got.Violations)
	assert.Zero(t, got.SafetyScore)
}

type fakeEventStore struct {
	mu       sync.Mutex
	events   []domain.SafetyEvent
	alerts   []domain.Alert
	eventErr error
	alertErr error
}

func (s *fakeEventStore) SaveSafetyEvent(_ context.Context, ev *domain.SafetyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventErr != nil {
		return s.eventErr
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *fakeEventStore) CreateAlert(_ context.Context, a *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alertErr != nil {
		return s.alertErr
	}
	s.alerts = append(s.alerts, *a)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (n *fakeNotifier) NotifyAlert(_ context.Context, a domain.Alert, _ domain.SafetyResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return n.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Record(t *testing.T) {
	ts := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		result       domain.SafetyResult
		wantEmployee string
		wantAlert    bool
		wantPriority domain.AlertPriority
	}{
		{
			name:         "compliant with employee",
			result:       domain.SafetyResult{Status: domain.SafetyCompliant, IdentityID: "EMP1", Timestamp: ts},
			wantEmployee: "EMP1",
		},
		{
			name: "minor violation without employee",
			result: domain.SafetyResult{
				Status:     domain.SafetyMinorViolation,
				Violations: []string{domain.ViolationVest},
				Timestamp:  ts,
			},
			wantEmployee: domain.SystemIdentityID,
			wantAlert:    true,
			wantPriority: domain.AlertPriorityMedium,
		},
		{
			name: "major violation",
			result: domain.SafetyResult{
				Status:     domain.SafetyMajorViolation,
				Violations: []string{domain.ViolationHardHat, domain.ViolationVest},
				IdentityID: "EMP2",
				Timestamp:  ts,
			},
			wantEmployee: "EMP2",
			wantAlert:    true,
			wantPriority: domain.AlertPriorityHigh,
		},
		{
			name:         "no person does not alert",
			result:       Aggregate(provider.PPEDetection{}),
			wantEmployee: domain.SystemIdentityID,
		},
		{
			name:         "system error does not alert",
			result:       SystemError(),
			wantEmployee: domain.SystemIdentityID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeEventStore{}
			notifier := &fakeNotifier{}
			auditLog := &audit.MemoryLogger{}
			r := NewRecorder(store, testLogger(), WithNotifier(notifier), WithAuditLogger(auditLog))

			require.NoError(t, r.Record(context.Background(), tt.result))

			require.Len(t, store.events, 1)
			ev := store.events[0]
			assert.Equal(t, tt.wantEmployee, ev.EmployeeID)
			assert.Equal(t, tt.result.Status, ev.Status)
			assert.Equal(t, len(tt.result.Violations), ev.ViolationCount)
			assert.NotNil(t, ev.Violations)
			assert.False(t, ev.CreatedAt.IsZero())

			if !tt.wantAlert {
				assert.Empty(t, store.alerts)
				assert.Empty(t, notifier.alerts)
				assert.Zero(t, auditLog.Count(audit.EventSafetyViolation))
				return
			}

			require.Len(t, store.alerts, 1)
			alert := store.alerts[0]
			assert.Equal(t, tt.wantEmployee, alert.EmployeeID)
			assert.Equal(t, "safety_violation", alert.Type)
			assert.Equal(t, tt.wantPriority, alert.Priority)
			assert.Contains(t, alert.Message, "Safety violations detected: ")
			assert.Len(t, notifier.alerts, 1)
			assert.Equal(t, 1, auditLog.Count(audit.EventSafetyViolation))
		})
	}
}

func TestRecorder_RecordErrors(t *testing.T) {
	violation := domain.SafetyResult{Status: domain.SafetyMinorViolation, Violations: []string{domain.ViolationVest}}

	t.Run("event save fails", func(t *testing.T) {
		store := &fakeEventStore{eventErr: errors.New("db down")}
		err := NewRecorder(store, testLogger()).Record(context.Background(), violation)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save safety event")
		assert.Empty(t, store.alerts)
	})

	t.Run("alert save fails", func(t *testing.T) {
		store := &fakeEventStore{alertErr: errors.New("db down")}
		err := NewRecorder(store, testLogger()).Record(context.Background(), violation)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create alert")
	})

	t.Run("notifier failure is not an error", func(t *testing.T) {
		store := &fakeEventStore{}
		n := &fakeNotifier{err: errors.New("webhook 500")}
		err := NewRecorder(store, testLogger(), WithNotifier(n)).Record(context.Background(), violation)
		require.NoError(t, err)
		assert.Len(t, store.alerts, 1)
	})
}

func TestRecorder_HandleSuppressesRepeats(t *testing.T) {
	store := &fakeEventStore{}
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	r := NewRecorder(store, testLogger(), WithRepeatInterval(time.Minute))
	r.now = func() time.Time { return now }

	compliant := domain.SafetyResult{Status: domain.SafetyCompliant, Violations: []string{}}
	vest := domain.SafetyResult{Status: domain.SafetyMinorViolation, Violations: []string{domain.ViolationVest}}

	r.Handle(compliant)
	r.Handle(compliant)
	assert.Len(t, store.events, 1)

	r.Handle(vest)
	assert.Len(t, store.events, 2)

	now = now.Add(30 * time.Second)
	r.Handle(vest)
	assert.Len(t, store.events, 2)

	now = now.Add(31 * time.Second)
	r.Handle(vest)
	assert.Len(t, store.events, 3)
}

func TestRecorder_ZeroRepeatIntervalPersistsEverything(t *testing.T) {
	store := &fakeEventStore{}
	r := NewRecorder(store, testLogger(), WithRepeatInterval(0))

	for i := 0; i < 3; i++ {
		r.Handle(domain.SafetyResult{Status: domain.SafetyCompliant})
	}

	assert.Len(t, store.events, 3)
}
