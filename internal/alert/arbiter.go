package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"happyshaa/internal/models"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/vision"
)

// Escalator carries out the side effects of an alert. Calls are made
// without the arbiter lock held.
type Escalator interface {
	// Pending is called once a session starts counting down. The session
	// may still change until the countdown ends so only a copy is passed.
	Pending(ctx context.Context, s *SessionInfo)
	// Cancelled is called when the user cancels or monitoring stops
	// during the countdown.
	Cancelled(ctx context.Context, s *Session)
	// Dispatch runs when the countdown elapses. The session clears when
	// it returns, whatever the outcome.
	Dispatch(ctx context.Context, s *Session)
}

// Arbiter is the per-device alert state machine. It owns the countdown
// timer and guarantees at most one session at a time.
type Arbiter struct {
	mu       sync.Mutex
	userID   string
	state    State
	cfg      Config
	session  *Session
	epoch    uint64
	location *models.GeoPoint

	escalator       Escalator
	observers       []Observer
	schedule        Scheduler
	now             func() time.Time
	dispatchTimeout time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
}

type Option func(*Arbiter)

func WithScheduler(s Scheduler) Option {
	return func(a *Arbiter) { a.schedule = s }
}

func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) { a.now = now }
}

func WithObserver(o Observer) Option {
	return func(a *Arbiter) { a.observers = append(a.observers, o) }
}

func WithDispatchTimeout(d time.Duration) Option {
	return func(a *Arbiter) { a.dispatchTimeout = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Arbiter) { a.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Arbiter) { a.metrics = m }
}

func NewArbiter(userID string, escalator Escalator, opts ...Option) *Arbiter {
	a := &Arbiter{
		userID:          userID,
		state:           StateIdle,
		cfg:             Config{}.normalize(),
		escalator:       escalator,
		schedule:        realScheduler,
		now:             time.Now,
		dispatchTimeout: time.Minute,
		logger:          logger.Nop(),
	}
	a.cfg.Threshold = DefaultThreshold
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithUserID(userID)
	return a
}

// Start moves Idle to Monitoring.
func (a *Arbiter) Start(cfg Config) error {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ErrAlreadyMonitoring
	}
	a.cfg = cfg.normalize()
	a.state = StateMonitoring
	a.epoch++
	a.mu.Unlock()

	a.emit(StateIdle, StateMonitoring, nil)
	return nil
}

// Stop returns to Idle from any state. A pending countdown is cancelled
// and reported to the escalator. A dispatch already running completes.
func (a *Arbiter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateIdle {
		a.mu.Unlock()
		return ErrNotMonitoring
	}

	from := a.state
	var cancelled *Session
	if a.state == StateAlertPending && a.session != nil {
		cancelled = a.session
		cancelled.timer.Stop()
		cancelled.cancelled = true
	}
	a.session = nil
	a.state = StateIdle
	a.epoch++
	a.mu.Unlock()

	if cancelled != nil {
		a.emit(from, StateCancelled, cancelled.Info())
		a.escalator.Cancelled(ctx, cancelled)
		from = StateCancelled
	}
	a.emit(from, StateIdle, nil)
	return nil
}

// Reconfigure applies to sessions created after the call.
func (a *Arbiter) Reconfigure(cfg Config) {
	a.mu.Lock()
	a.cfg = cfg.normalize()
	a.mu.Unlock()
}

// UpdateLocation records the device's last known coordinates. A session
// still counting down picks them up too.
func (a *Arbiter) UpdateLocation(p models.GeoPoint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.location = &p
	if a.session != nil && a.state == StateAlertPending {
		loc := p
		a.session.Location = &loc
	}
}

// Epoch identifies the current verdict generation. It changes whenever a
// session is cleared or monitoring starts or stops.
func (a *Arbiter) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch
}

func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Evaluate feeds one classifier verdict sampled at epoch. It returns the
// new session when the verdict triggered an alert.
func (a *Arbiter) Evaluate(ctx context.Context, v *vision.Verdict, photo []byte, epoch uint64) *Session {
	if v == nil {
		return nil
	}

	a.mu.Lock()
	switch {
	case a.state == StateAlertPending || a.state == StateDispatching:
		a.mu.Unlock()
		if v.Emergency {
			a.logger.Debug("Detection ignored, alert already active")
		}
		return nil
	case a.state != StateMonitoring:
		a.mu.Unlock()
		return nil
	case epoch != a.epoch:
		a.mu.Unlock()
		a.logger.WithFields(map[string]interface{}{
			"verdict_epoch": epoch,
		}).Debug("Discarding stale verdict")
		return nil
	case !v.Emergency || v.Confidence <= a.cfg.Threshold:
		a.mu.Unlock()
		return nil
	}

	now := a.now()
	s := &Session{
		ID:          uuid.New().String(),
		UserID:      a.userID,
		TriggeredAt: now,
		Type:        v.Type,
		Confidence:  v.Confidence,
		Description: v.Description,
		Photo:       photo,
		Deadline:    now.Add(a.cfg.Countdown),
	}
	if a.location != nil {
		loc := *a.location
		s.Location = &loc
	}
	s.timer = a.schedule(a.cfg.Countdown, func() { a.fire(s) })
	a.session = s
	a.state = StateAlertPending
	info := s.Info()
	a.mu.Unlock()

	a.logger.WithSessionID(s.ID).WithFields(map[string]interface{}{
		"type":       s.Type,
		"confidence": s.Confidence,
		"deadline":   s.Deadline,
	}).Warn("Possible emergency detected, countdown started")

	a.emit(StateMonitoring, StateAlertPending, info)
	a.escalator.Pending(ctx, info)
	return s
}

// Cancel aborts the pending alert. Once dispatch has begun it is too late.
func (a *Arbiter) Cancel(ctx context.Context) (*SessionInfo, error) {
	a.mu.Lock()
	switch a.state {
	case StateAlertPending:
	case StateDispatching:
		a.mu.Unlock()
		return nil, ErrDispatchInProgress
	default:
		a.mu.Unlock()
		return nil, ErrNoPendingAlert
	}

	s := a.session
	s.timer.Stop()
	s.cancelled = true
	a.session = nil
	a.state = StateMonitoring
	a.epoch++
	a.mu.Unlock()

	a.logger.WithSessionID(s.ID).Info("Alert cancelled by user")

	a.emit(StateAlertPending, StateCancelled, s.Info())
	a.escalator.Cancelled(ctx, s)
	a.emit(StateCancelled, StateMonitoring, nil)
	return s.Info(), nil
}

// fire runs on the countdown timer. The session may have been cancelled
// between the timer firing and the lock being acquired.
func (a *Arbiter) fire(s *Session) {
	a.mu.Lock()
	if a.session != s || s.cancelled || a.state != StateAlertPending {
		a.mu.Unlock()
		return
	}
	a.state = StateDispatching
	a.mu.Unlock()

	a.emit(StateAlertPending, StateDispatching, s.Info())

	defer a.finishDispatch(s)

	ctx, cancel := context.WithTimeout(context.Background(), a.dispatchTimeout)
	defer cancel()

	a.logger.WithSessionID(s.ID).Warn("Countdown elapsed, dispatching alert")
	a.escalator.Dispatch(ctx, s)
}

func (a *Arbiter) finishDispatch(s *Session) {
	if r := recover(); r != nil {
		a.logger.WithSessionID(s.ID).WithField("panic", r).Error("Alert dispatch panicked")
	}

	a.mu.Lock()
	back := false
	if a.session == s {
		a.session = nil
		a.epoch++
		if a.state == StateDispatching {
			a.state = StateMonitoring
			back = true
		}
	}
	a.mu.Unlock()

	if back {
		a.emit(StateDispatching, StateMonitoring, nil)
	}
}

func (a *Arbiter) Status() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		UserID:    a.userID,
		State:     a.state,
		Countdown: a.cfg.Countdown,
		Threshold: a.cfg.Threshold,
		Epoch:     a.epoch,
	}
	if a.session != nil {
		snap.Session = a.session.Info()
		if a.state == StateAlertPending {
			remaining := a.session.Deadline.Sub(a.now()).Seconds()
			if remaining < 0 {
				remaining = 0
			}
			snap.RemainingSeconds = remaining
		}
	}
	return snap
}

func (a *Arbiter) emit(from, to State, info *SessionInfo) {
	a.metrics.RecordTransition(string(to))

	t := Transition{
		UserID:  a.userID,
		From:    from,
		To:      to,
		Session: info,
		At:      a.now(),
	}
	for _, o := range a.observers {
		o(t)
	}
}
