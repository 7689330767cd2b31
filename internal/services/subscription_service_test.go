package services_test

import (
	"testing"
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/testhelpers"
	"classifieds_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_AdminDeactivationSyncsPremium(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	sub := testhelpers.Subscribe(t, f.db, user, models.PlanMonth, testNow.AddDate(0, 1, 0))

	inactive := string(models.SubscriptionStatusInactive)
	updated, err := f.svc.SubscriptionService.UpdateSubscription(f.db, sub.ID, &dto.UpdateSubscriptionRequest{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusInactive, updated.Status)
	assert.False(t, testhelpers.Reload[models.User](t, f.db, user.ID).IsPremiumUser)

	active := string(models.SubscriptionStatusActive)
	end := testNow.Add(48 * time.Hour)
	_, err = f.svc.SubscriptionService.UpdateSubscription(f.db, sub.ID, &dto.UpdateSubscriptionRequest{Status: &active, EndDate: &end})
	require.NoError(t, err)
	assert.True(t, testhelpers.Reload[models.User](t, f.db, user.ID).IsPremiumUser)
}

func TestSubscription_UpdateMissing(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.SubscriptionService.UpdateSubscription(f.db, "missing", &dto.UpdateSubscriptionRequest{})
	require.ErrorIs(t, err, apperrors.ErrSubscriptionNotFound)
}

func TestSubscription_ListAndFilter(t *testing.T) {
	f := newServiceFixture(t)
	alice := testhelpers.CreateUser(t, f.db, nil)
	bob := testhelpers.CreateUser(t, f.db, nil)
	testhelpers.Subscribe(t, f.db, alice, models.PlanMonth, testNow.AddDate(0, 1, 0))
	testhelpers.Subscribe(t, f.db, bob, models.PlanWeek, testNow.Add(-time.Hour))
	_, err := f.svc.ExpiryService.SweepAll(f.db)
	require.NoError(t, err)

	all, err := f.svc.SubscriptionService.ListSubscriptions(f.db, &dto.SubscriptionListQuery{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	active, err := f.svc.SubscriptionService.ListSubscriptions(f.db, &dto.SubscriptionListQuery{Status: "active"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, active.Subscriptions, 1)
	assert.Equal(t, alice.ID, active.Subscriptions[0].UserID)

	weekly, err := f.svc.SubscriptionService.ListSubscriptions(f.db, &dto.SubscriptionListQuery{Plan: models.PlanWeek}, 1, 10)
	require.NoError(t, err)
	require.Len(t, weekly.Subscriptions, 1)
	assert.Equal(t, bob.ID, weekly.Subscriptions[0].UserID)

	mine, err := f.svc.SubscriptionService.GetUserSubscriptions(f.db, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.SubscriptionStatusInactive, mine[0].Status)
}
