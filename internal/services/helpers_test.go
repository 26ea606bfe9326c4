package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"happyshaa/internal/alert"
	"happyshaa/internal/config"
	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/cache"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/storage"
	"happyshaa/pkg/telephony"
	"happyshaa/pkg/vision"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testEmergencyConfig() *config.EmergencyConfig {
	return &config.EmergencyConfig{
		ThresholdLow:     30,
		ThresholdMedium:  50,
		ThresholdHigh:    70,
		DefaultCountdown: 10,
		MinCountdown:     5,
		MaxCountdown:     30,
		SampleInterval:   time.Hour,
		MaxInFlight:      1,
		MaxFrameSize:     64,
		JPEGQuality:      80,
		FrameStaleAfter:  time.Minute,
		IdleTimeout:      2 * time.Minute,
		LeaseTTL:         time.Minute,
		NotifyLimit:      4,
		DispatchTimeout:  5 * time.Second,
		MaxFrameBytes:    1 << 20,
		DefaultLogsLimit: 50,
	}
}

func newTestCache() CacheService {
	return NewCacheService(cache.NewLocalCache(time.Minute, time.Minute), logger.Nop())
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// settings repository

type memSettingsRepo struct {
	mu   sync.Mutex
	rows map[string]models.EmergencySettings
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{rows: make(map[string]models.EmergencySettings)}
}

func (r *memSettingsRepo) GetByUser(ctx context.Context, userID string) (*models.EmergencySettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &row, nil
}

func (r *memSettingsRepo) Upsert(ctx context.Context, s *models.EmergencySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[s.UserID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		s.ID = uuid.NewString()
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	r.rows[s.UserID] = *s
	return nil
}

// contact repository

type memContactRepo struct {
	mu       sync.Mutex
	contacts []*models.EmergencyContact
	err      error
}

func (r *memContactRepo) Create(ctx context.Context, c *models.EmergencyContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.contacts = append(r.contacts, c)
	return nil
}

func (r *memContactRepo) ListByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.filter(userID, false)
}

func (r *memContactRepo) ListEmergencyByUser(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	return r.filter(userID, true)
}

func (r *memContactRepo) filter(userID string, emergencyOnly bool) ([]*models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.EmergencyContact, 0)
	for _, c := range r.contacts {
		if c.UserID == userID && (!emergencyOnly || c.IsEmergency) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memContactRepo) SetEmergency(ctx context.Context, userID, id string, v bool) (*models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.ID == id && c.UserID == userID {
			c.IsEmergency = v
			return c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *memContactRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.contacts {
		if c.ID == id && c.UserID == userID {
			r.contacts = append(r.contacts[:i], r.contacts[i+1:]...)
			return nil
		}
	}
	return interfaces.ErrNotFound
}

// log repository

type memLogRepo struct {
	mu      sync.Mutex
	entries []*models.EmergencyLogEntry
}

func (r *memLogRepo) Create(ctx context.Context, e *models.EmergencyLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *memLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*models.EmergencyLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.EmergencyLogEntry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLogRepo) all() []*models.EmergencyLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.EmergencyLogEntry(nil), r.entries...)
}

// telephony

type fakeTelephony struct {
	mu      sync.Mutex
	sms     []*telephony.SMSRequest
	calls   []*telephony.CallRequest
	failTo  map[string]bool
	noVoice bool
}

func (f *fakeTelephony) Name() string { return "fake" }

func (f *fakeTelephony) SendSMS(ctx context.Context, req *telephony.SMSRequest) (*telephony.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sms = append(f.sms, req)
	if f.failTo[req.To] {
		return nil, errors.New("carrier rejected")
	}
	return &telephony.SMSResponse{MessageID: "SM" + req.To, Status: "queued"}, nil
}

func (f *fakeTelephony) PlaceCall(ctx context.Context, req *telephony.CallRequest) (*telephony.CallResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.noVoice {
		return nil, telephony.ErrVoiceUnsupported
	}
	if f.failTo[req.To] {
		return nil, errors.New("line busy")
	}
	return &telephony.CallResponse{CallID: "CA" + req.To, Status: "queued"}, nil
}

func (f *fakeTelephony) counts() (sms, calls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sms), len(f.calls)
}

// relay

type fakeRelay struct {
	mu       sync.Mutex
	requests []*models.NotifyRequest
	failTo   map[string]bool
}

func (f *fakeRelay) Notify(ctx context.Context, req *models.NotifyRequest) *models.NotifyResponse {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fail := f.failTo[req.PhoneNumber]
	f.mu.Unlock()

	if fail {
		return &models.NotifyResponse{
			Results: models.NotifyResults{SMS: &models.ChannelResult{Error: "failed"}},
			Error:   "sms: failed",
		}
	}
	return &models.NotifyResponse{
		Success: true,
		Results: models.NotifyResults{SMS: &models.ChannelResult{Success: true}},
	}
}

func (f *fakeRelay) received() []*models.NotifyRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.NotifyRequest(nil), f.requests...)
}

// storage

type fakeStorage struct {
	mu        sync.Mutex
	keys      []string
	encrypted []bool
	err       error
}

func (f *fakeStorage) Upload(ctx context.Context, req *storage.UploadRequest) (*storage.UploadResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(req.Reader); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.keys = append(f.keys, req.Key)
	f.encrypted = append(f.encrypted, req.Encrypt)
	f.mu.Unlock()
	return &storage.UploadResponse{Key: req.Key, URL: "https://cdn.test/" + req.Key}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeStorage) FileExists(ctx context.Context, key string) (bool, error) { return false, nil }

// classifier

type stubClassifier struct {
	mu      sync.Mutex
	verdict *vision.Verdict
	err     error
	calls   int
}

func (c *stubClassifier) Classify(ctx context.Context, jpeg []byte) (*vision.Verdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	v := *c.verdict
	return &v, nil
}

func (c *stubClassifier) set(v *vision.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdict = v
}

// realtime

type sentEvent struct {
	userID  string
	msgType string
	data    interface{}
}

type recordingRealtime struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingRealtime) SendToUser(userID, msgType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{userID, msgType, data})
}

func (r *recordingRealtime) ofType(msgType string) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, e := range r.events {
		if e.msgType == msgType {
			out = append(out, e)
		}
	}
	return out
}

// manual countdown scheduler

type manualTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualScheduler) Schedule(d time.Duration, f func()) alert.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.timers = append(m.timers, t)
	return t
}

// fireLast runs the newest timer callback, even if stopped, the way a
// timer that already fired races a cancel.
func (m *manualScheduler) fireLast(ignoreStop bool) {
	m.mu.Lock()
	t := m.timers[len(m.timers)-1]
	m.mu.Unlock()

	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped && !ignoreStop {
		return
	}
	t.f()
}
