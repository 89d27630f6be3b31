package services

import (
	"context"
	"time"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BonusService interface {
	CreateBonus(ctx context.Context, bonus *models.Bonus) error
	GetBonus(ctx context.Context, id primitive.ObjectID) (*models.Bonus, error)

	// SelectApplicableBonus returns the best-for-user eligible bonus and its
	// computed amount, or (nil, 0) when nothing applies.
	SelectApplicableBonus(ctx context.Context, depositAmount float64, isFirstDeposit bool) (*models.Bonus, float64, error)

	// Activate creates an ACTIVE UserBonus for an approved deposit.
	Activate(ctx context.Context, userID primitive.ObjectID, bonus *models.Bonus, depositID primitive.ObjectID, bonusAmount float64) (*models.UserBonus, error)

	// ApplyTradeWager burns traded volume against the user's active wagering
	// locks. Best-effort: errors are logged, never propagated.
	ApplyTradeWager(ctx context.Context, userID primitive.ObjectID, volume float64)

	ExpireOverdue(ctx context.Context) (int64, error)
	Cancel(ctx context.Context, userBonusID primitive.ObjectID) error
}

type bonusService struct {
	bonusRepo interfaces.BonusRepository
	notifier  NotificationService
	logger    *logger.Logger
}

func NewBonusService(bonusRepo interfaces.BonusRepository, notifier NotificationService, log *logger.Logger) BonusService {
	return &bonusService{
		bonusRepo: bonusRepo,
		notifier:  notifier,
		logger:    log,
	}
}

func (s *bonusService) CreateBonus(ctx context.Context, bonus *models.Bonus) error {
	if bonus.Value <= 0 {
		return models.NewValidationError("value", "value must be positive")
	}
	if bonus.ValueType != models.BonusValuePercentage && bonus.ValueType != models.BonusValueFixed {
		return models.NewValidationError("value_type", "must be percentage or fixed")
	}
	if bonus.WagerRequirement < 0 {
		return models.NewValidationError("wager_requirement", "must not be negative")
	}
	return s.bonusRepo.Create(ctx, bonus)
}

func (s *bonusService) GetBonus(ctx context.Context, id primitive.ObjectID) (*models.Bonus, error) {
	return s.bonusRepo.GetByID(ctx, id)
}

// SelectApplicableBonus filters active bonuses by deposit-category match,
// minimum deposit and remaining usage, then picks the maximal computed amount.
// Candidates arrive sorted by created_at, so the strict comparison keeps the
// earliest bonus on a tie.
func (s *bonusService) SelectApplicableBonus(ctx context.Context, depositAmount float64, isFirstDeposit bool) (*models.Bonus, float64, error) {
	bonuses, err := s.bonusRepo.ListActive(ctx)
	if err != nil {
		return nil, 0, err
	}

	var best *models.Bonus
	var bestAmount float64

	for _, bonus := range bonuses {
		if isFirstDeposit != (bonus.Category == models.BonusCategoryFirstDeposit) {
			continue
		}
		if depositAmount < bonus.MinDeposit {
			continue
		}
		if !bonus.HasUsageLeft() {
			continue
		}

		amount := utils.RoundMoney(bonus.ComputeAmount(depositAmount))
		if amount <= 0 {
			continue
		}
		if amount > bestAmount {
			best = bonus
			bestAmount = amount
		}
	}

	return best, bestAmount, nil
}

func (s *bonusService) Activate(ctx context.Context, userID primitive.ObjectID, bonus *models.Bonus, depositID primitive.ObjectID, bonusAmount float64) (*models.UserBonus, error) {
	if bonusAmount <= 0 {
		return nil, models.NewValidationError("bonus_amount", "bonus amount must be positive")
	}

	now := time.Now().UTC()
	wager := utils.RoundMoney(bonus.WagerRequirement * bonusAmount)

	userBonus := &models.UserBonus{
		UserID:           userID,
		BonusID:          bonus.ID,
		DepositID:        depositID,
		BonusAmount:      bonusAmount,
		WagerRequirement: wager,
		RemainingWager:   wager,
		Status:           models.UserBonusStatusActive,
		ActivatedAt:      &now,
	}
	if bonus.DurationDays > 0 {
		expiresAt := now.AddDate(0, 0, bonus.DurationDays)
		userBonus.ExpiresAt = &expiresAt
	}

	if err := s.bonusRepo.CreateUserBonus(ctx, userBonus); err != nil {
		return nil, err
	}
	if err := s.bonusRepo.IncrementUsage(ctx, bonus.ID); err != nil {
		s.logger.WithError(err).WithField("bonus_id", bonus.ID.Hex()).Warn("Failed to increment bonus usage")
	}

	s.notifier.Notify(models.NotificationBonusActivated, userID, map[string]interface{}{
		"bonus_id": bonus.ID.Hex(),
		"amount":   bonusAmount,
	})

	return userBonus, nil
}

func (s *bonusService) ApplyTradeWager(ctx context.Context, userID primitive.ObjectID, volume float64) {
	if volume <= 0 {
		return
	}

	active, err := s.bonusRepo.GetActiveUserBonuses(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).Warn("Failed to load active bonuses for wager burn")
		return
	}

	now := time.Now().UTC()
	for _, ub := range active {
		if ub.IsExpired(now) {
			s.markStatus(ctx, ub.ID, models.UserBonusStatusExpired, map[string]interface{}{})
			continue
		}

		remaining := utils.RoundMoney(ub.RemainingWager - volume)
		updates := map[string]interface{}{
			"remaining_wager": utils.FloorAtZero(remaining),
		}
		if remaining <= 0 {
			updates["status"] = models.UserBonusStatusCompleted
		}
		if err := s.bonusRepo.UpdateUserBonus(ctx, ub.ID, updates); err != nil {
			s.logger.WithError(err).WithUserID(userID).Warn("Failed to apply wager burn")
		}
	}
}

// ExpireOverdue sweeps ACTIVE user bonuses whose expiry has passed, called by
// an external scheduler.
func (s *bonusService) ExpireOverdue(ctx context.Context) (int64, error) {
	overdue, err := s.bonusRepo.GetExpiredActive(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	var count int64
	for _, ub := range overdue {
		if err := s.bonusRepo.UpdateUserBonus(ctx, ub.ID, map[string]interface{}{
			"status": models.UserBonusStatusExpired,
		}); err != nil {
			s.logger.WithError(err).WithField("user_bonus_id", ub.ID.Hex()).Warn("Failed to expire bonus")
			continue
		}
		count++
	}
	return count, nil
}

func (s *bonusService) Cancel(ctx context.Context, userBonusID primitive.ObjectID) error {
	ub, err := s.bonusRepo.GetUserBonusByID(ctx, userBonusID)
	if err != nil {
		return err
	}
	if ub.Status != models.UserBonusStatusPending && ub.Status != models.UserBonusStatusActive {
		return models.NewStateConflictError("bonus is not pending or active")
	}
	return s.bonusRepo.UpdateUserBonus(ctx, userBonusID, map[string]interface{}{
		"status": models.UserBonusStatusCancelled,
	})
}

func (s *bonusService) markStatus(ctx context.Context, id primitive.ObjectID, status models.UserBonusStatus, extra map[string]interface{}) {
	extra["status"] = status
	if err := s.bonusRepo.UpdateUserBonus(ctx, id, extra); err != nil {
		s.logger.WithError(err).WithField("user_bonus_id", id.Hex()).Warn("Failed to update bonus status")
	}
}
