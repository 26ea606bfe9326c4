package services

import (
	"context"
	"testing"

	"happyshaa/internal/models"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactCreateNormalizesPhone(t *testing.T) {
	repo := &memContactRepo{}
	svc := NewContactService(repo, logger.Nop())

	c, err := svc.Create(context.Background(), "u-1", &models.CreateContactRequest{
		Name:        "  Dana ",
		PhoneNumber: "+1 (555) 123-0001",
		IsEmergency: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Dana", c.Name)
	assert.Equal(t, "+15551230001", c.PhoneNumber)
	assert.Equal(t, "u-1", c.UserID)
}

func TestContactCreateValidates(t *testing.T) {
	svc := NewContactService(&memContactRepo{}, logger.Nop())

	_, err := svc.Create(context.Background(), "u-1", &models.CreateContactRequest{Name: " ", PhoneNumber: "+15551230001"})
	assert.ErrorIs(t, err, ErrInvalidContact)

	_, err = svc.Create(context.Background(), "u-1", &models.CreateContactRequest{Name: "Dana", PhoneNumber: "12"})
	assert.ErrorIs(t, err, ErrInvalidContact)
}

func TestContactToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(&memContactRepo{}, logger.Nop())

	c, err := svc.Create(ctx, "u-1", &models.CreateContactRequest{Name: "Dana", PhoneNumber: "+15551230001"})
	require.NoError(t, err)

	list, err := svc.ListEmergency(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.SetEmergency(ctx, "u-1", c.ID, true)
	require.NoError(t, err)
	list, err = svc.ListEmergency(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// another user cannot touch it
	_, err = svc.SetEmergency(ctx, "u-2", c.ID, false)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "u-2", c.ID), interfaces.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "u-1", c.ID))
	all, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
