// Package detection runs the capture, recognize, credit and classify cycle.
package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/attendance"
	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/gallery"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
	"github.com/saturnino-fabrica-de-software/workforce/internal/safety"
	"github.com/saturnino-fabrica-de-software/workforce/internal/video"
)

// State of the loop
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// ErrStartAborted is returned by Start when Stop is called while it is still starting
var ErrStartAborted = errors.New("start aborted by stop")

// Publisher receives every event the loop produces
type Publisher interface {
	PublishFace(ev domain.DetectionEvent)
	PublishSafety(res domain.SafetyResult)
}

// Config controls loop cadence and external call bounds
type Config struct {
	CycleInterval         time.Duration
	ModelTimeout          time.Duration
	ReadinessPollInterval time.Duration
	ReadinessTimeout      time.Duration
	FrameMaxSize          int
}

func DefaultConfig() Config {
	return Config{
		CycleInterval:         100 * time.Millisecond,
		ModelTimeout:          5 * time.Second,
		ReadinessPollInterval: 2 * time.Second,
		ReadinessTimeout:      2 * time.Minute,
		FrameMaxSize:          640,
	}
}

// Deps are the collaborators a loop is built from
type Deps struct {
	Face      provider.FaceModel
	Safety    provider.SafetyModel
	Readiness provider.ReadinessChecker
	Gallery   *gallery.Gallery
	Matcher   *gallery.Matcher
	Trigger   *attendance.Trigger
	Publisher Publisher
}

// Status is a point-in-time view of the loop
type Status struct {
	State      State      `json:"state"`
	CameraID   string     `json:"camera_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	LastCycle  *time.Time `json:"last_cycle_at,omitempty"`
	Cycles     uint64     `json:"cycles"`
	ReadErrors uint64     `json:"read_errors"`
}

// Loop owns one camera session at a time
type Loop struct {
	deps        Deps
	cfg         Config
	logger      *slog.Logger
	auditLogger audit.Logger
	now         func() time.Time

	mu          sync.Mutex
	state       State
	source      video.Source
	abortStart  context.CancelFunc
	startDone   chan struct{}
	stopCh      chan struct{}
	done        chan struct{}
	idle        chan struct{}
	startedAt   time.Time
	lastCycleAt atomic.Int64
	cycles      atomic.Uint64
	readErrors  atomic.Uint64
}

// Option defines optional configuration for Loop
type Option func(*Loop)

func WithAuditLogger(l audit.Logger) Option {
	return func(lp *Loop) {
		lp.auditLogger = l
	}
}

// WithClock overrides the timestamp source for events
func WithClock(now func() time.Time) Option {
	return func(lp *Loop) {
		lp.now = now
	}
}

func New(deps Deps, cfg Config, logger *slog.Logger, opts ...Option) *Loop {
	def := DefaultConfig()
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = def.CycleInterval
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = def.ModelTimeout
	}
	if cfg.ReadinessPollInterval <= 0 {
		cfg.ReadinessPollInterval = def.ReadinessPollInterval
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = def.ReadinessTimeout
	}
	if deps.Readiness == nil {
		deps.Readiness = provider.AlwaysReady{}
	}

	l := &Loop{
		deps:        deps,
		cfg:         cfg,
		logger:      logger.With("component", "detection_loop"),
		auditLogger: &audit.NoOpLogger{},
		now:         time.Now,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current lifecycle state
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status reports state and counters
func (l *Loop) Status() Status {
	l.mu.Lock()
	st := Status{
		State:      l.state,
		Cycles:     l.cycles.Load(),
		ReadErrors: l.readErrors.Load(),
	}
	if l.source != nil {
		st.CameraID = l.source.ID()
	}
	if l.state == StateRunning || l.state == StateStopping {
		started := l.startedAt
		st.StartedAt = &started
	}
	l.mu.Unlock()

	if ns := l.lastCycleAt.Load(); ns != 0 {
		last := time.Unix(0, ns)
		st.LastCycle = &last
	}
	return st
}

// Start opens the source, waits for the models and launches the run goroutine.
// It returns once the loop is running; a second Start is rejected.
func (l *Loop) Start(ctx context.Context, src video.Source) error {
	l.mu.Lock()
	if l.state != StateIdle {
		state := l.state
		l.mu.Unlock()
		return domain.ErrLoopRunning.WithError(fmt.Errorf("loop is %s", state))
	}
	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	startDone := make(chan struct{})
	defer close(startDone)
	l.state = StateStarting
	l.abortStart = cancel
	l.startDone = startDone
	l.mu.Unlock()

	log := l.logger.With(slog.String("camera_id", src.ID()))

	if err := src.Open(startCtx); err != nil {
		l.resetIdle()
		log.Error("failed to open video source", slog.Any("error", err))
		l.logAudit(audit.EventDetectionStarted, src.ID(), err)
		return domain.ErrCameraUnavailable.WithError(err)
	}

	if err := l.awaitReady(startCtx); err != nil {
		l.release(src)
		l.resetIdle()
		l.logAudit(audit.EventDetectionStarted, src.ID(), err)
		if startCtx.Err() != nil && ctx.Err() == nil {
			return ErrStartAborted
		}
		return domain.ErrModelsNotReady.WithError(err)
	}

	if l.deps.Gallery != nil && l.deps.Trigger != nil {
		l.deps.Trigger.Warm(startCtx, l.deps.Gallery.IdentityIDs())
	}

	l.mu.Lock()
	if startCtx.Err() != nil {
		l.mu.Unlock()
		l.release(src)
		l.resetIdle()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrStartAborted
	}
	l.state = StateRunning
	l.source = src
	l.abortStart = nil
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.idle = make(chan struct{})
	l.startedAt = l.now()
	l.cycles.Store(0)
	l.readErrors.Store(0)
	l.lastCycleAt.Store(0)
	stopCh, done := l.stopCh, l.done
	l.mu.Unlock()

	go l.run(src, stopCh, done)

	log.Info("detection loop started",
		slog.Duration("cycle_interval", l.cfg.CycleInterval),
	)
	l.logAudit(audit.EventDetectionStarted, src.ID(), nil)
	return nil
}

// Stop ends the session. The in-flight cycle completes first and the source
// is released exactly once. Calling Stop on an idle loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	switch l.state {
	case StateIdle:
		l.mu.Unlock()
		return

	case StateStarting:
		if l.abortStart != nil {
			l.abortStart()
		}
		startDone := l.startDone
		l.mu.Unlock()
		<-startDone
		return

	case StateStopping:
		idle := l.idle
		l.mu.Unlock()
		<-idle
		return
	}

	l.state = StateStopping
	close(l.stopCh)
	src, done, idle := l.source, l.done, l.idle
	l.mu.Unlock()

	<-done
	l.release(src)

	l.mu.Lock()
	l.state = StateIdle
	l.source = nil
	l.mu.Unlock()
	close(idle)

	l.logger.Info("detection loop stopped",
		slog.String("camera_id", src.ID()),
		slog.Uint64("cycles", l.cycles.Load()),
	)
	l.logAudit(audit.EventDetectionStopped, src.ID(), nil)
}

func (l *Loop) resetIdle() {
	l.mu.Lock()
	l.state = StateIdle
	l.abortStart = nil
	l.mu.Unlock()
}

func (l *Loop) release(src video.Source) {
	if err := src.Close(); err != nil {
		l.logger.Warn("failed to release video source",
			slog.String("camera_id", src.ID()),
			slog.Any("error", err),
		)
	}
}

// awaitReady polls the readiness checker until it succeeds or ReadinessTimeout passes
func (l *Loop) awaitReady(ctx context.Context) error {
	deadline := time.NewTimer(l.cfg.ReadinessTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(l.cfg.ReadinessPollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		checkCtx, cancel := context.WithTimeout(ctx, l.cfg.ModelTimeout)
		err := l.deps.Readiness.Ready(checkCtx)
		cancel()
		if err == nil {
			return nil
		}

		l.logger.Info("waiting for models",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("models not ready after %s: %w", l.cfg.ReadinessTimeout, err)
		case <-ticker.C:
		}
	}
}

// run repeats cycles with a fixed delay between the end of one and the start of the next
func (l *Loop) run(src video.Source, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-timer.C:
		}

		l.cycle(src)
		timer.Reset(l.cfg.CycleInterval)
	}
}

func (l *Loop) recoverPanic(stage string) {
	if r := recover(); r != nil {
		l.logger.Error("detection cycle panicked",
			slog.String("stage", stage),
			slog.Any("panic", r),
		)
	}
}

func (l *Loop) cycle(src video.Source) {
	defer l.recoverPanic("cycle")

	readCtx, cancel := context.WithTimeout(context.Background(), l.cfg.ModelTimeout)
	frame, err := src.Read(readCtx)
	cancel()
	if err != nil {
		l.readErrors.Add(1)
		l.logger.Warn("frame read failed, skipping cycle",
			slog.String("camera_id", src.ID()),
			slog.Any("error", err),
		)
		return
	}

	ts := l.now()
	frame = l.prepare(frame)

	var (
		wg     sync.WaitGroup
		faces  []domain.DetectionEvent
		result = safety.SystemError()
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer l.recoverPanic("face")
		faces = l.recognize(frame, src.ID(), ts)
	}()
	go func() {
		defer wg.Done()
		defer l.recoverPanic("safety")
		result = l.classify(frame)
	}()
	wg.Wait()

	result.CameraID = src.ID()
	result.Timestamp = ts
	for _, ev := range faces {
		if ev.Known {
			result.IdentityID = ev.IdentityID
			break
		}
	}

	if l.deps.Publisher != nil {
		for _, ev := range faces {
			l.deps.Publisher.PublishFace(ev)
		}
		l.deps.Publisher.PublishSafety(result)
	}

	l.cycles.Add(1)
	l.lastCycleAt.Store(ts.UnixNano())
}

func (l *Loop) prepare(frame []byte) []byte {
	if l.cfg.FrameMaxSize <= 0 {
		return frame
	}
	resized, err := video.Resize(frame, l.cfg.FrameMaxSize)
	if err != nil {
		l.logger.Debug("frame resize failed, using original", slog.Any("error", err))
		return frame
	}
	return resized
}

// recognize returns one event per detected face. A model error yields no events.
func (l *Loop) recognize(frame []byte, cameraID string, ts time.Time) []domain.DetectionEvent {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ModelTimeout)
	defer cancel()

	faces, err := l.deps.Face.DetectAndEmbed(ctx, frame)
	if err != nil {
		l.logger.Warn("face model failed, no faces this cycle",
			slog.String("camera_id", cameraID),
			slog.Any("error", err),
		)
		return nil
	}

	events := make([]domain.DetectionEvent, 0, len(faces))
	for _, f := range faces {
		m, ok := l.deps.Matcher.Match(f.Embedding)
		if !ok {
			events = append(events, domain.UnknownFace(f.BoundingBox, cameraID, ts))
			continue
		}

		ev := domain.DetectionEvent{
			IdentityID:  m.Identity.ID,
			DisplayName: m.Identity.DisplayName,
			Confidence:  m.Confidence(),
			Distance:    m.Distance,
			Known:       true,
			BoundingBox: f.BoundingBox,
			CameraID:    cameraID,
			Timestamp:   ts,
		}
		if l.deps.Trigger != nil {
			ev.NewCredit = l.deps.Trigger.Credit(ev.IdentityID, cameraID, ev.Confidence, ts)
		}
		events = append(events, ev)
	}
	return events
}

// classify never fails; classifier errors become a system_error result
func (l *Loop) classify(frame []byte) domain.SafetyResult {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ModelTimeout)
	defer cancel()

	det, err := l.deps.Safety.Classify(ctx, frame)
	if err != nil {
		l.logger.Warn("safety model failed", slog.Any("error", err))
		return safety.SystemError()
	}
	return safety.Aggregate(det)
}

func (l *Loop) logAudit(eventType audit.EventType, cameraID string, err error) {
	ev := audit.Event{
		EventType: eventType,
		CameraID:  cameraID,
		Source:    "detection",
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	_ = l.auditLogger.Log(context.Background(), ev)
}
