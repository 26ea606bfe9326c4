package services

import (
	"context"
	"errors"
	"testing"

	"happyshaa/internal/models"
	"happyshaa/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedContacts(repo *memContactRepo, userID string, phones ...string) {
	for i, p := range phones {
		_ = repo.Create(context.Background(), &models.EmergencyContact{
			UserID:      userID,
			Name:        "Contact " + string(rune('A'+i)),
			PhoneNumber: p,
			IsEmergency: true,
		})
	}
}

func testEvidence() *Evidence {
	return &Evidence{
		SessionID:     "s-1",
		DetectionType: models.DetectionFall,
		Description:   "Person lying on the floor",
		Location:      &models.GeoPoint{Latitude: 1, Longitude: 2},
		PhotoURL:      "https://cdn.test/p.jpg",
	}
}

func TestNotifyAllWithoutContacts(t *testing.T) {
	relay := &fakeRelay{}
	repo := &memContactRepo{}
	// a non-emergency contact does not count
	_ = repo.Create(context.Background(), &models.EmergencyContact{UserID: "u-1", Name: "Pat", PhoneNumber: "+15550000001"})

	svc := NewNotifierService(NewContactService(repo, logger.Nop()), relay, logger.Nop(), 4, "+15550000911")

	report, err := svc.NotifyAll(context.Background(), "u-1", testEvidence(), Channels{SMS: true, Voice: true, Emergency911: true})

	assert.ErrorIs(t, err, ErrNoEmergencyContacts)
	assert.Nil(t, report)
	assert.Empty(t, relay.received())
}

func TestNotifyAllReportsEveryContact(t *testing.T) {
	relay := &fakeRelay{failTo: map[string]bool{"+15550000002": true}}
	repo := &memContactRepo{}
	seedContacts(repo, "u-1", "+15550000001", "+15550000002", "+15550000003")
	seedContacts(repo, "u-2", "+15550000009")

	svc := NewNotifierService(NewContactService(repo, logger.Nop()), relay, logger.Nop(), 2, "")

	report, err := svc.NotifyAll(context.Background(), "u-1", testEvidence(), Channels{SMS: true})
	require.NoError(t, err)

	assert.Len(t, report.Outcomes, 3)
	assert.Equal(t, 2, report.Notified)
	assert.Equal(t, 1, report.Failed)
	assert.Nil(t, report.EmergencyServices)

	for _, o := range report.Outcomes {
		assert.Equal(t, o.PhoneNumber != "+15550000002", o.Success, o.PhoneNumber)
	}

	reqs := relay.received()
	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.True(t, r.SendSMS)
		assert.False(t, r.SendCall)
		assert.False(t, r.Emergency911)
		assert.Equal(t, "https://cdn.test/p.jpg", r.PhotoURL)
		assert.Equal(t, "fall", r.DetectionType)
	}
}

func TestNotifyAllCallsEmergencyServices(t *testing.T) {
	relay := &fakeRelay{}
	repo := &memContactRepo{}
	seedContacts(repo, "u-1", "+15550000001")

	svc := NewNotifierService(NewContactService(repo, logger.Nop()), relay, logger.Nop(), 4, "+15550000911")

	report, err := svc.NotifyAll(context.Background(), "u-1", testEvidence(), Channels{SMS: true, Voice: true, Emergency911: true})
	require.NoError(t, err)

	require.NotNil(t, report.EmergencyServices)
	assert.Equal(t, "+15550000911", report.EmergencyServices.PhoneNumber)
	assert.Equal(t, 1, report.Notified)

	var services *models.NotifyRequest
	for _, r := range relay.received() {
		if r.Emergency911 {
			services = r
		}
	}
	require.NotNil(t, services)
	assert.False(t, services.SendSMS)
	assert.True(t, services.SendCall)
}

func TestNotifyAllSkipsEmergencyServicesWithoutNumber(t *testing.T) {
	relay := &fakeRelay{}
	repo := &memContactRepo{}
	seedContacts(repo, "u-1", "+15550000001")

	svc := NewNotifierService(NewContactService(repo, logger.Nop()), relay, logger.Nop(), 4, "")

	report, err := svc.NotifyAll(context.Background(), "u-1", testEvidence(), Channels{SMS: true, Emergency911: true})
	require.NoError(t, err)
	assert.Nil(t, report.EmergencyServices)
	assert.Len(t, relay.received(), 1)
}

func TestNotifyAllContactLookupFails(t *testing.T) {
	repo := &memContactRepo{err: errors.New("db down")}
	svc := NewNotifierService(NewContactService(repo, logger.Nop()), &fakeRelay{}, logger.Nop(), 4, "")

	_, err := svc.NotifyAll(context.Background(), "u-1", testEvidence(), Channels{SMS: true})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEmergencyContacts)
}
