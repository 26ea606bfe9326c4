package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"happyshaa/internal/alert"
	"happyshaa/internal/config"
	"happyshaa/internal/models"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/push"
	"happyshaa/pkg/vision"
	"happyshaa/pkg/websocket"
)

// RealtimeNotifier pushes events to a user's open connections.
type RealtimeNotifier interface {
	SendToUser(userID, msgType string, data interface{})
}

// PushSender delivers a device notification by platform.
type PushSender interface {
	Enabled() bool
	Send(ctx context.Context, platform string, req *push.NotificationRequest) (*push.NotificationResponse, error)
}

type MonitorService interface {
	Start(ctx context.Context, userID string, req *models.StartMonitoringRequest) (alert.Snapshot, error)
	Stop(ctx context.Context, userID string) error
	Cancel(ctx context.Context, userID string) (*alert.SessionInfo, error)
	PushFrame(ctx context.Context, userID string, data []byte) error
	UpdateLocation(ctx context.Context, userID string, p models.GeoPoint) error
	Status(ctx context.Context, userID string) alert.Snapshot
	// ApplySettings reconfigures a live arbiter after a settings save.
	ApplySettings(userID string, s *models.EmergencySettings)
	// ReapIdle stops monitors that have not received a frame within the
	// idle timeout and returns how many were stopped.
	ReapIdle(ctx context.Context) int
	Shutdown(ctx context.Context)

	websocket.MessageHandler
}

type MonitorDeps struct {
	Settings   SettingsService
	Notifier   NotifierService
	Evidence   EvidenceService
	Logs       EmergencyLogService
	Cache      CacheService
	Classifier vision.Classifier
	Push       PushSender       // optional
	Realtime   RealtimeNotifier // optional
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Config     *config.EmergencyConfig

	// ArbiterOptions are appended to every arbiter, tests inject a scheduler.
	ArbiterOptions []alert.Option
}

type monitor struct {
	userID    string
	arbiter   *alert.Arbiter
	frames    *alert.FrameBuffer
	sampler   *alert.Sampler
	lock      *DistributedLock
	device    deviceTarget
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

type deviceTarget struct {
	token    string
	platform string
}

type monitorService struct {
	deps   MonitorDeps
	cfg    *config.EmergencyConfig
	logger *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	monitors map[string]*monitor
}

func NewMonitorService(deps MonitorDeps) MonitorService {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &monitorService{
		deps:     deps,
		cfg:      deps.Config,
		logger:   deps.Logger.WithField("component", "monitor"),
		now:      time.Now,
		monitors: make(map[string]*monitor),
	}
}

func (s *monitorService) Start(ctx context.Context, userID string, req *models.StartMonitoringRequest) (alert.Snapshot, error) {
	if req == nil {
		req = &models.StartMonitoringRequest{}
	}
	if s.get(userID) != nil {
		return alert.Snapshot{}, alert.ErrAlreadyMonitoring
	}

	lock, err := s.deps.Cache.Lock(ctx, monitorLeaseKey(userID), s.cfg.LeaseTTL)
	if errors.Is(err, ErrLockHeld) {
		return alert.Snapshot{}, alert.ErrAlreadyMonitoring
	}
	if err != nil {
		return alert.Snapshot{}, err
	}

	settings, err := s.deps.Settings.Get(ctx, userID)
	if err != nil {
		s.releaseLease(lock)
		return alert.Snapshot{}, err
	}

	log := s.logger.WithUserID(userID)
	m := &monitor{
		userID:    userID,
		frames:    alert.NewFrameBuffer(s.cfg.FrameStaleAfter),
		lock:      lock,
		device:    deviceTarget{token: req.DeviceToken, platform: req.DevicePlatform},
		startedAt: s.now(),
		done:      make(chan struct{}),
	}

	opts := []alert.Option{
		alert.WithLogger(log),
		alert.WithMetrics(s.deps.Metrics),
		alert.WithDispatchTimeout(s.cfg.DispatchTimeout),
		alert.WithObserver(s.publishTransition),
	}
	opts = append(opts, s.deps.ArbiterOptions...)
	m.arbiter = alert.NewArbiter(userID, &escalator{svc: s, monitor: m}, opts...)

	m.sampler = alert.NewSampler(m.frames, s.deps.Classifier, m.arbiter, alert.SamplerConfig{
		Interval:     s.cfg.SampleInterval,
		MaxFrameSize: s.cfg.MaxFrameSize,
		JPEGQuality:  s.cfg.JPEGQuality,
		MaxInFlight:  s.cfg.MaxInFlight,
	}, log.WithField("component", "sampler"), s.deps.Metrics)

	if req.Location != nil {
		m.arbiter.UpdateLocation(*req.Location)
	}
	if err := m.arbiter.Start(s.deps.Settings.ArbiterConfig(&settings.EmergencySettings)); err != nil {
		s.releaseLease(lock)
		return alert.Snapshot{}, err
	}

	s.mu.Lock()
	if _, exists := s.monitors[userID]; exists {
		s.mu.Unlock()
		_ = m.arbiter.Stop(ctx)
		s.releaseLease(lock)
		return alert.Snapshot{}, alert.ErrAlreadyMonitoring
	}
	s.monitors[userID] = m
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go s.run(runCtx, m)

	s.deps.Metrics.MonitorStarted()
	log.WithFields(map[string]interface{}{
		"threshold": settings.Threshold,
		"countdown": settings.CountdownSeconds,
	}).Info("Monitoring started")

	return m.arbiter.Status(), nil
}

// run drives sampling and keeps the lease alive until the monitor stops.
func (s *monitorService) run(ctx context.Context, m *monitor) {
	defer close(m.done)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.sampler.Run(ctx)
	}()
	defer wg.Wait()

	refresh := s.cfg.LeaseTTL / 3
	if refresh <= 0 {
		refresh = 20 * time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.deps.Cache.Refresh(ctx, m.lock)
			switch {
			case err == nil:
			case errors.Is(err, ErrLockLost):
				s.logger.WithUserID(m.userID).Warn("Monitoring lease lost, stopping")
				go s.stopMonitor(context.Background(), m)
				return
			default:
				s.logger.WithUserID(m.userID).WithError(err).Warn("Monitoring lease refresh failed")
			}
		}
	}
}

func (s *monitorService) Stop(ctx context.Context, userID string) error {
	m := s.get(userID)
	if m == nil {
		return alert.ErrNotMonitoring
	}
	return s.stopMonitor(ctx, m)
}

func (s *monitorService) stopMonitor(ctx context.Context, m *monitor) error {
	s.mu.Lock()
	if s.monitors[m.userID] != m {
		s.mu.Unlock()
		return alert.ErrNotMonitoring
	}
	delete(s.monitors, m.userID)
	s.mu.Unlock()

	err := m.arbiter.Stop(ctx)
	m.cancel()
	<-m.done
	m.frames.Release()
	s.releaseLease(m.lock)

	s.deps.Metrics.MonitorStopped()
	s.logger.WithUserID(m.userID).Info("Monitoring stopped")
	if errors.Is(err, alert.ErrNotMonitoring) {
		return nil
	}
	return err
}

func (s *monitorService) Cancel(ctx context.Context, userID string) (*alert.SessionInfo, error) {
	m := s.get(userID)
	if m == nil {
		return nil, alert.ErrNoPendingAlert
	}
	return m.arbiter.Cancel(ctx)
}

func (s *monitorService) PushFrame(ctx context.Context, userID string, data []byte) error {
	m := s.get(userID)
	if m == nil {
		return alert.ErrNotMonitoring
	}
	if s.cfg.MaxFrameBytes > 0 && int64(len(data)) > s.cfg.MaxFrameBytes {
		return fmt.Errorf("%w: frame exceeds %d bytes", ErrInvalidImage, s.cfg.MaxFrameBytes)
	}
	if err := m.frames.Push(data); err != nil {
		s.deps.Metrics.RecordFrame("rejected")
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	s.deps.Metrics.RecordFrame("received")
	return nil
}

func (s *monitorService) UpdateLocation(ctx context.Context, userID string, p models.GeoPoint) error {
	m := s.get(userID)
	if m == nil {
		return alert.ErrNotMonitoring
	}
	m.arbiter.UpdateLocation(p)
	return nil
}

func (s *monitorService) Status(ctx context.Context, userID string) alert.Snapshot {
	m := s.get(userID)
	if m == nil {
		return alert.Snapshot{UserID: userID, State: alert.StateIdle}
	}
	return m.arbiter.Status()
}

func (s *monitorService) ApplySettings(userID string, settings *models.EmergencySettings) {
	m := s.get(userID)
	if m == nil {
		return
	}
	m.arbiter.Reconfigure(s.deps.Settings.ArbiterConfig(settings))
	s.logger.WithUserID(userID).Debug("Live monitor reconfigured")
}

func (s *monitorService) ReapIdle(ctx context.Context) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	var idle []*monitor
	now := s.now()
	for _, m := range s.monitors {
		last := m.frames.LastFrameAt()
		if last.IsZero() {
			last = m.startedAt
		}
		if now.Sub(last) > s.cfg.IdleTimeout {
			idle = append(idle, m)
		}
	}
	s.mu.Unlock()

	stopped := 0
	for _, m := range idle {
		if err := s.stopMonitor(ctx, m); err == nil {
			stopped++
			s.logger.WithUserID(m.userID).Info("Stopped idle monitor, camera released")
		}
	}
	return stopped
}

func (s *monitorService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	all := make([]*monitor, 0, len(s.monitors))
	for _, m := range s.monitors {
		all = append(all, m)
	}
	s.mu.Unlock()

	for _, m := range all {
		if err := s.stopMonitor(ctx, m); err != nil && !errors.Is(err, alert.ErrNotMonitoring) {
			s.logger.WithUserID(m.userID).WithError(err).Warn("Failed to stop monitor on shutdown")
		}
	}
}

type framePayload struct {
	Image string `json:"image"`
}

func (s *monitorService) HandleMessage(ctx context.Context, userID string, msg websocket.Inbound) error {
	switch msg.Type {
	case websocket.TypeFrame:
		var p framePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.Image == "" {
			return fmt.Errorf("%w: frame payload needs an image", ErrInvalidImage)
		}
		data, err := vision.DecodeImage(p.Image)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return s.PushFrame(ctx, userID, data)

	case websocket.TypeLocation:
		var p models.GeoPoint
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return fmt.Errorf("invalid location: %w", err)
		}
		if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
			return errors.New("invalid location: coordinates out of range")
		}
		return s.UpdateLocation(ctx, userID, p)

	case websocket.TypeCancelAlert:
		_, err := s.Cancel(ctx, userID)
		return err
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (s *monitorService) get(userID string) *monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitors[userID]
}

func (s *monitorService) releaseLease(lock *DistributedLock) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Cache.Unlock(ctx, lock); err != nil {
		s.logger.WithError(err).Warn("Failed to release monitoring lease")
	}
}

func (s *monitorService) publishTransition(t alert.Transition) {
	if s.deps.Realtime != nil {
		s.deps.Realtime.SendToUser(t.UserID, websocket.TypeAlertState, t)
	}
}

func monitorLeaseKey(userID string) string {
	return "monitor:" + userID
}
