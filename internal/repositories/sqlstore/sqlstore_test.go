package sqlstore

import (
	"context"
	"testing"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQL(&database.SQLConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSettingsUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t))

	_, err := repo.GetByUser(ctx, "u1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	first := &models.EmergencySettings{
		UserID:           "u1",
		CountdownSeconds: 15,
		EnableSMS:        true,
		Sensitivity:      models.SensitivityHigh,
	}
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &models.EmergencySettings{
		UserID:           "u1",
		CountdownSeconds: 15,
		EnableSMS:        true,
		Sensitivity:      models.SensitivityHigh,
	}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	third := &models.EmergencySettings{
		UserID:           "u1",
		CountdownSeconds: 20,
		Enable911:        true,
		Sensitivity:      models.SensitivityLow,
	}
	require.NoError(t, repo.Upsert(ctx, third))

	got, err := repo.GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 20, got.CountdownSeconds)
	assert.True(t, got.Enable911)
	assert.False(t, got.EnableSMS)
	assert.Equal(t, models.SensitivityLow, got.Sensitivity)

	var count int64
	require.NoError(t, newCount(repo).Model(&models.EmergencySettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func newCount(repo interfaces.SettingsRepository) *gorm.DB {
	return repo.(*settingsRepository).db
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewContactRepository(newTestDB(t))

	mom := &models.EmergencyContact{UserID: "u1", Name: "Mom", PhoneNumber: "+15550001", IsEmergency: true}
	friend := &models.EmergencyContact{UserID: "u1", Name: "Friend", PhoneNumber: "+15550002"}
	other := &models.EmergencyContact{UserID: "u2", Name: "Other", PhoneNumber: "+15550003", IsEmergency: true}
	for _, c := range []*models.EmergencyContact{mom, friend, other} {
		require.NoError(t, repo.Create(ctx, c))
	}

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	emergency, err := repo.ListEmergencyByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, emergency, 1)
	assert.Equal(t, "Mom", emergency[0].Name)

	updated, err := repo.SetEmergency(ctx, "u1", friend.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsEmergency)

	emergency, err = repo.ListEmergencyByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, emergency, 2)

	_, err = repo.SetEmergency(ctx, "u1", other.ID, false)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "u1", other.ID), interfaces.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1", mom.ID))

	all, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, friend.ID, all[0].ID)
}

func TestEmergencyLogNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewEmergencyLogRepository(newTestDB(t))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	url := "https://cdn.example/emergency/u1/1.jpg"
	lat, lng := 37.4, -122.1

	entries := []*models.EmergencyLogEntry{
		{UserID: "u1", DetectionType: models.DetectionFall, Confidence: 80, CreatedAt: base},
		{UserID: "u1", DetectionType: models.DetectionMedical, Confidence: 60, WasCancelled: true, CreatedAt: base.Add(time.Minute)},
		{UserID: "u1", DetectionType: models.DetectionHazard, Confidence: 90, PhotoURL: &url, GPSLatitude: &lat, GPSLongitude: &lng, NotifiedCount: 2, CreatedAt: base.Add(2 * time.Minute)},
		{UserID: "u2", DetectionType: models.DetectionFall, Confidence: 99, CreatedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
	}

	got, err := repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.DetectionHazard, got[0].DetectionType)
	require.NotNil(t, got[0].PhotoURL)
	assert.Equal(t, url, *got[0].PhotoURL)
	assert.Equal(t, 2, got[0].NotifiedCount)
	assert.True(t, got[1].WasCancelled)
	assert.Nil(t, got[1].PhotoURL)
}
