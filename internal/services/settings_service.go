package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"happyshaa/internal/alert"
	"happyshaa/internal/config"
	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/cache"
	"happyshaa/pkg/logger"
)

const settingsCacheTTL = 10 * time.Minute

type SettingsService interface {
	// Get returns the stored settings or the defaults. Stored reports which.
	Get(ctx context.Context, userID string) (*models.SettingsResponse, error)
	Save(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error)
	// ArbiterConfig maps settings onto the countdown and numeric threshold.
	ArbiterConfig(s *models.EmergencySettings) alert.Config
	// OnSave registers a callback run after every successful save.
	OnSave(fn func(userID string, s *models.EmergencySettings))
}

type settingsService struct {
	repo       interfaces.SettingsRepository
	cache      CacheService
	audit      *logger.AuditLogger
	logger     *logger.Logger
	cfg        *config.EmergencyConfig
	thresholds models.Thresholds

	mu        sync.RWMutex
	listeners []func(string, *models.EmergencySettings)
}

type cachedSettings struct {
	Settings models.EmergencySettings `json:"settings"`
	Stored   bool                     `json:"stored"`
}

func NewSettingsService(
	repo interfaces.SettingsRepository,
	cache CacheService,
	audit *logger.AuditLogger,
	log *logger.Logger,
	cfg *config.EmergencyConfig,
) SettingsService {
	return &settingsService{
		repo:   repo,
		cache:  cache,
		audit:  audit,
		logger: log.WithField("component", "settings"),
		cfg:    cfg,
		thresholds: models.Thresholds{
			Low:    cfg.ThresholdLow,
			Medium: cfg.ThresholdMedium,
			High:   cfg.ThresholdHigh,
		},
	}
}

func (s *settingsService) defaults(userID string) models.EmergencySettings {
	return models.EmergencySettings{
		UserID:           userID,
		CountdownSeconds: s.cfg.DefaultCountdown,
		EnableSMS:        true,
		EnableVoiceCall:  true,
		Enable911:        false,
		Sensitivity:      models.SensitivityMedium,
	}
}

func (s *settingsService) Get(ctx context.Context, userID string) (*models.SettingsResponse, error) {
	var cached cachedSettings
	if err := s.cache.Get(ctx, settingsCacheKey(userID), &cached); err == nil {
		return s.response(&cached.Settings, cached.Stored), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithUserID(userID).Warn("Settings cache read failed")
	}

	stored := true
	settings, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, interfaces.ErrNotFound) {
		d := s.defaults(userID)
		settings, stored = &d, false
	} else if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := s.cache.Set(ctx, settingsCacheKey(userID), cachedSettings{Settings: *settings, Stored: stored}, settingsCacheTTL); err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("Settings cache write failed")
	}

	return s.response(settings, stored), nil
}

func (s *settingsService) Save(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := current.EmergencySettings
	next := before
	next.UserID = userID

	if req.CountdownSeconds != nil {
		next.CountdownSeconds = s.clampCountdown(*req.CountdownSeconds)
	}
	if req.EnableSMS != nil {
		next.EnableSMS = *req.EnableSMS
	}
	if req.EnableVoiceCall != nil {
		next.EnableVoiceCall = *req.EnableVoiceCall
	}
	if req.Enable911 != nil {
		next.Enable911 = *req.Enable911
	}
	switch {
	case req.Sensitivity != nil:
		level, err := models.ParseSensitivity(*req.Sensitivity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		next.Sensitivity = level
	case req.SensitivitySlider != nil:
		if *req.SensitivitySlider < 0 || *req.SensitivitySlider > 100 {
			return nil, fmt.Errorf("%w: slider must be within 0-100", ErrInvalidSettings)
		}
		next.Sensitivity = models.SensitivityFromSlider(*req.SensitivitySlider)
	}
	if !next.Sensitivity.Valid() {
		next.Sensitivity = models.SensitivityMedium
	}
	next.CountdownSeconds = s.clampCountdown(next.CountdownSeconds)

	if err := s.repo.Upsert(ctx, &next); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	if err := s.cache.Delete(ctx, settingsCacheKey(userID)); err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("Settings cache invalidation failed")
	}

	s.auditChanges(userID, before, next)

	s.mu.RLock()
	listeners := append([]func(string, *models.EmergencySettings){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		saved := next
		fn(userID, &saved)
	}

	return s.response(&next, true), nil
}

func (s *settingsService) ArbiterConfig(settings *models.EmergencySettings) alert.Config {
	return alert.Config{
		Countdown: time.Duration(s.clampCountdown(settings.CountdownSeconds)) * time.Second,
		Threshold: s.thresholds.For(settings.Sensitivity),
	}
}

func (s *settingsService) OnSave(fn func(userID string, s *models.EmergencySettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *settingsService) clampCountdown(v int) int {
	if v < s.cfg.MinCountdown {
		return s.cfg.MinCountdown
	}
	if v > s.cfg.MaxCountdown {
		return s.cfg.MaxCountdown
	}
	return v
}

func (s *settingsService) response(settings *models.EmergencySettings, stored bool) *models.SettingsResponse {
	return &models.SettingsResponse{
		EmergencySettings: *settings,
		SensitivitySlider: settings.Sensitivity.Slider(),
		Threshold:         s.thresholds.For(settings.Sensitivity),
		Stored:            stored,
	}
}

func (s *settingsService) auditChanges(userID string, before, after models.EmergencySettings) {
	if s.audit == nil {
		return
	}
	changes := []struct {
		name     string
		old, new string
	}{
		{"countdown_seconds", strconv.Itoa(before.CountdownSeconds), strconv.Itoa(after.CountdownSeconds)},
		{"enable_sms", strconv.FormatBool(before.EnableSMS), strconv.FormatBool(after.EnableSMS)},
		{"enable_voice_call", strconv.FormatBool(before.EnableVoiceCall), strconv.FormatBool(after.EnableVoiceCall)},
		{"enable_911", strconv.FormatBool(before.Enable911), strconv.FormatBool(after.Enable911)},
		{"sensitivity", string(before.Sensitivity), string(after.Sensitivity)},
	}
	for _, c := range changes {
		if c.old != c.new {
			s.audit.LogConfigChange(c.name, c.old, c.new, userID)
		}
	}
}

func settingsCacheKey(userID string) string {
	return "settings:" + userID
}
