package services

import (
	"context"
	"testing"
	"time"

	"vxness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBonusHarness() (*fakeBonusRepo, *recordingNotifier, BonusService) {
	repo := newFakeBonusRepo()
	notifier := &recordingNotifier{}
	service := NewBonusService(repo, notifier, newTestLogger())
	return repo, notifier, service
}

func TestSelectApplicableBonusFirstDepositScenario(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	// 100% up to $500, min deposit $100
	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name:             "welcome",
		Category:         models.BonusCategoryFirstDeposit,
		ValueType:        models.BonusValuePercentage,
		Value:            100,
		MinDeposit:       100,
		MaxBonus:         500,
		WagerRequirement: 20,
		DurationDays:     30,
		IsActive:         true,
	}))

	bonus, amount, err := service.SelectApplicableBonus(ctx, 300, true)
	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, 300.0, amount) // uncapped, 300 < 500

	// capped at max bonus
	_, amount, err = service.SelectApplicableBonus(ctx, 900, true)
	require.NoError(t, err)
	assert.Equal(t, 500.0, amount)

	// below minimum deposit
	bonus, _, err = service.SelectApplicableBonus(ctx, 50, true)
	require.NoError(t, err)
	assert.Nil(t, bonus)
}

func TestSelectApplicableBonusCategoryGating(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name:      "welcome",
		Category:  models.BonusCategoryFirstDeposit,
		ValueType: models.BonusValueFixed,
		Value:     100,
		IsActive:  true,
	}))
	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name:      "reload",
		Category:  models.BonusCategoryReload,
		ValueType: models.BonusValueFixed,
		Value:     25,
		IsActive:  true,
	}))

	bonus, _, err := service.SelectApplicableBonus(ctx, 200, true)
	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, "welcome", bonus.Name)

	bonus, _, err = service.SelectApplicableBonus(ctx, 200, false)
	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, "reload", bonus.Name)
}

func TestSelectApplicableBonusPicksMaximalAmount(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name: "small", Category: models.BonusCategoryDeposit,
		ValueType: models.BonusValueFixed, Value: 20, IsActive: true,
	}))
	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name: "big", Category: models.BonusCategoryDeposit,
		ValueType: models.BonusValuePercentage, Value: 50, IsActive: true,
	}))

	bonus, amount, err := service.SelectApplicableBonus(ctx, 200, false)
	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, "big", bonus.Name)
	assert.Equal(t, 100.0, amount)
}

func TestSelectApplicableBonusTieBreaksOnEarliest(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name: "older", Category: models.BonusCategoryDeposit,
		ValueType: models.BonusValueFixed, Value: 50, IsActive: true,
	}))
	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name: "newer", Category: models.BonusCategoryDeposit,
		ValueType: models.BonusValueFixed, Value: 50, IsActive: true,
	}))

	bonus, _, err := service.SelectApplicableBonus(ctx, 200, false)
	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, "older", bonus.Name)
}

func TestSelectApplicableBonusRespectsUsageLimit(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Bonus{
		Name: "limited", Category: models.BonusCategoryDeposit,
		ValueType: models.BonusValueFixed, Value: 50,
		UsageLimit: 1, UsedCount: 1, IsActive: true,
	}))

	bonus, _, err := service.SelectApplicableBonus(ctx, 200, false)
	require.NoError(t, err)
	assert.Nil(t, bonus)
}

func TestActivateCreatesWageringLock(t *testing.T) {
	repo, notifier, service := newBonusHarness()
	ctx := context.Background()

	bonus := &models.Bonus{
		Name: "welcome", Category: models.BonusCategoryFirstDeposit,
		ValueType: models.BonusValuePercentage, Value: 100,
		WagerRequirement: 20, DurationDays: 30, IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, bonus))

	userID := primitive.NewObjectID()
	depositID := primitive.NewObjectID()

	ub, err := service.Activate(ctx, userID, bonus, depositID, 300)
	require.NoError(t, err)
	assert.Equal(t, models.UserBonusStatusActive, ub.Status)
	assert.Equal(t, 6000.0, ub.WagerRequirement) // 20 * 300
	assert.Equal(t, 6000.0, ub.RemainingWager)
	require.NotNil(t, ub.ExpiresAt)
	assert.Equal(t, int64(1), repo.bonuses[0].UsedCount)
	assert.Contains(t, notifier.kinds, models.NotificationBonusActivated)
}

func TestApplyTradeWagerCompletesAtZero(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	expires := time.Now().UTC().Add(24 * time.Hour)
	ub := &models.UserBonus{
		UserID:           userID,
		BonusID:          primitive.NewObjectID(),
		DepositID:        primitive.NewObjectID(),
		BonusAmount:      100,
		WagerRequirement: 1000,
		RemainingWager:   1000,
		Status:           models.UserBonusStatusActive,
		ExpiresAt:        &expires,
	}
	require.NoError(t, repo.CreateUserBonus(ctx, ub))

	service.ApplyTradeWager(ctx, userID, 400)
	assert.Equal(t, 600.0, repo.userBonuses[ub.ID].RemainingWager)
	assert.Equal(t, models.UserBonusStatusActive, repo.userBonuses[ub.ID].Status)

	service.ApplyTradeWager(ctx, userID, 700)
	assert.Equal(t, 0.0, repo.userBonuses[ub.ID].RemainingWager)
	assert.Equal(t, models.UserBonusStatusCompleted, repo.userBonuses[ub.ID].Status)
}

func TestExpireOverdue(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	ub := &models.UserBonus{
		UserID:         primitive.NewObjectID(),
		BonusID:        primitive.NewObjectID(),
		DepositID:      primitive.NewObjectID(),
		RemainingWager: 500,
		Status:         models.UserBonusStatusActive,
		ExpiresAt:      &past,
	}
	require.NoError(t, repo.CreateUserBonus(ctx, ub))

	count, err := service.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, models.UserBonusStatusExpired, repo.userBonuses[ub.ID].Status)
}

func TestCancelOnlyPendingOrActive(t *testing.T) {
	repo, _, service := newBonusHarness()
	ctx := context.Background()

	ub := &models.UserBonus{
		UserID:    primitive.NewObjectID(),
		BonusID:   primitive.NewObjectID(),
		DepositID: primitive.NewObjectID(),
		Status:    models.UserBonusStatusActive,
	}
	require.NoError(t, repo.CreateUserBonus(ctx, ub))

	require.NoError(t, service.Cancel(ctx, ub.ID))
	assert.Equal(t, models.UserBonusStatusCancelled, repo.userBonuses[ub.ID].Status)

	err := service.Cancel(ctx, ub.ID)
	assert.True(t, models.IsStateConflictError(err))
}
