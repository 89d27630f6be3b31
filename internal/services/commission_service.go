package services

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/config"
	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionService interface {
	// ProcessTradeClose fans a closed trade out to the trader's upline and
	// credits each eligible partner. Callers deliver each closed trade once:
	// the (trade_id, level) index blocks duplicate ledger credits on a
	// redelivery, but the wagering burn-down would be applied again.
	ProcessTradeClose(ctx context.Context, event *models.TradeClosedEvent) (*models.TradeCommissionResult, error)

	GetEntry(ctx context.Context, id primitive.ObjectID) (*models.CommissionLedgerEntry, error)
	GetPartnerLedger(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionLedgerEntry, int64, error)

	// SumCredited totals the partner's credited entries. It reconciles with
	// the account's total_earned: every credit raises both, every reversal
	// lowers both.
	SumCredited(ctx context.Context, partnerID primitive.ObjectID) (float64, error)

	// ResetDailyTotals zeroes every partner's today_commission counter.
	ResetDailyTotals(ctx context.Context) (int64, error)
}

type commissionService struct {
	commissionRepo interfaces.CommissionRepository
	partnerRepo    interfaces.PartnerRepository
	referralRepo   interfaces.ReferralRepository
	referrals      ReferralService
	plans          PlanService
	bonuses        BonusService
	tx             TxRunner
	cache          CacheService
	notifier       NotificationService
	cfg            *config.CommissionConfig
	logger         *logger.Logger
}

func NewCommissionService(
	commissionRepo interfaces.CommissionRepository,
	partnerRepo interfaces.PartnerRepository,
	referralRepo interfaces.ReferralRepository,
	referrals ReferralService,
	plans PlanService,
	bonuses BonusService,
	tx TxRunner,
	cache CacheService,
	notifier NotificationService,
	cfg *config.CommissionConfig,
	log *logger.Logger,
) CommissionService {
	return &commissionService{
		commissionRepo: commissionRepo,
		partnerRepo:    partnerRepo,
		referralRepo:   referralRepo,
		referrals:      referrals,
		plans:          plans,
		bonuses:        bonuses,
		tx:             tx,
		cache:          cache,
		notifier:       notifier,
		cfg:            cfg,
		logger:         log,
	}
}

func (s *commissionService) ProcessTradeClose(ctx context.Context, event *models.TradeClosedEvent) (*models.TradeCommissionResult, error) {
	if event.TradeID == "" {
		return nil, models.NewValidationError("trade_id", "trade_id is required")
	}
	if event.LotSize <= 0 {
		return nil, models.NewValidationError("lot_size", "lot_size must be positive")
	}

	result := &models.TradeCommissionResult{TradeID: event.TradeID}

	maxLevels := s.cfg.MaxLevels
	if maxLevels <= 0 || maxLevels > models.MaxPlanLevels {
		maxLevels = models.MaxPlanLevels
	}

	chain, err := s.referrals.GetUplineChain(ctx, event.UserID, maxLevels)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upline: %w", err)
	}
	if len(chain) == 0 {
		s.logger.WithTradeID(event.TradeID).Debug("Trade has no upline, nothing to credit")
		return result, nil
	}

	// Wagering locks burn down on traded volume regardless of whether any
	// level ends up credited.
	if s.bonuses != nil {
		s.bonuses.ApplyTradeWager(ctx, event.UserID, event.NotionalVolume())
	}

	for i, partner := range chain {
		level := i + 1
		levelResult := s.processLevel(ctx, event, partner, level)
		result.Levels = append(result.Levels, levelResult)
		if levelResult.Status == models.LevelResultCredited {
			result.Processed = true
		}
	}

	return result, nil
}

// processLevel credits one partner for one level of the trade. Each level is
// isolated: a failure here is reported in the result but never aborts the
// remaining levels.
func (s *commissionService) processLevel(ctx context.Context, event *models.TradeClosedEvent, partner *models.PartnerAccount, level int) models.LevelResult {
	res := models.LevelResult{PartnerID: partner.ID, Level: level}

	plan, err := s.plans.Resolve(ctx, partner)
	if err != nil {
		if models.IsNotFoundError(err) {
			res.Status = models.LevelResultSkipped
			res.Reason = "no active commission plan"
			return res
		}
		res.Status = models.LevelResultFailed
		res.Reason = err.Error()
		return res
	}

	if level > plan.MaxLevels {
		res.Status = models.LevelResultSkipped
		res.Reason = "level beyond plan depth"
		return res
	}

	rate := plan.RateForLevel(level)
	if rate <= 0 {
		res.Status = models.LevelResultSkipped
		res.Reason = "no rate configured for level"
		return res
	}

	amount, sources := computeCommission(plan, event, rate)
	if amount <= 0 {
		res.Status = models.LevelResultSkipped
		res.Reason = "computed amount is zero"
		return res
	}

	lock, err := s.cache.Lock(ctx, PartnerLockKey(partner.ID.Hex()), utils.AccountLockTTL)
	if err != nil {
		res.Status = models.LevelResultFailed
		res.Reason = "partner wallet busy"
		return res
	}
	defer func() {
		if err := s.cache.Unlock(ctx, lock); err != nil {
			s.logger.WithError(err).WithPartnerID(partner.ID).Warn("Failed to release partner lock")
		}
	}()

	entry := &models.CommissionLedgerEntry{
		PartnerID:      partner.ID,
		TraderID:       event.UserID,
		TradeID:        event.TradeID,
		Level:          level,
		Symbol:         event.Symbol,
		LotSize:        event.LotSize,
		Volume:         event.NotionalVolume(),
		CommissionType: plan.CommissionType,
		Rate:           rate,
		Sources:        sources,
		Amount:         amount,
		Status:         models.CommissionEntryStatusCredited,
		TradingDay:     time.Now().UTC().Format(utils.TradingDayFormat),
		CreditedAt:     time.Now().UTC(),
	}

	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.commissionRepo.Create(txCtx, entry); err != nil {
			return nil, err
		}
		if err := s.partnerRepo.ApplyCommissionCredit(txCtx, partner.ID, amount, event.NotionalVolume(), event.LotSize); err != nil {
			return nil, err
		}
		// Edge volume stats track the trader once, at the direct level;
		// commission totals accumulate for every level credited.
		if level == 1 {
			if err := s.referralRepo.ApplyTradeStats(txCtx, event.UserID, event.NotionalVolume(), amount, entry.CreditedAt); err != nil {
				return nil, err
			}
		} else {
			if err := s.referralRepo.AddCommission(txCtx, event.UserID, amount); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		if models.IsStateConflictError(err) {
			res.Status = models.LevelResultSkipped
			res.Reason = "trade already processed for level"
			return res
		}
		s.logger.WithError(err).LogCommissionEvent(event.TradeID, partner.ID, level, amount, "failed")
		res.Status = models.LevelResultFailed
		res.Reason = err.Error()
		return res
	}

	s.logger.LogCommissionEvent(event.TradeID, partner.ID, level, amount, "credited")
	s.notifier.Notify(models.NotificationCommissionCredited, partner.UserID, map[string]interface{}{
		"trade_id": event.TradeID,
		"level":    level,
		"amount":   amount,
	})

	res.Status = models.LevelResultCredited
	res.Amount = amount
	return res
}

// computeCommission applies the plan's formula. Per-lot plans pay lot size
// times the level rate. Percentage plans pay rate% of each enabled source,
// each contribution rounded on its own so the breakdown sums to the total.
func computeCommission(plan *models.CommissionPlan, event *models.TradeClosedEvent, rate float64) (float64, models.SourceBreakdown) {
	var sources models.SourceBreakdown

	switch plan.CommissionType {
	case models.CommissionTypePerLot:
		return utils.RoundMoney(event.LotSize * rate), sources
	case models.CommissionTypePercentage:
		if plan.FromSpread && event.Spread > 0 {
			sources.Spread = utils.PercentOf(event.Spread, rate)
		}
		if plan.FromCommission && event.Commission > 0 {
			sources.Commission = utils.PercentOf(event.Commission, rate)
		}
		if plan.FromSwap && event.Swap > 0 {
			sources.Swap = utils.PercentOf(event.Swap, rate)
		}
		return utils.RoundMoney(sources.Spread + sources.Commission + sources.Swap), sources
	default:
		return 0, sources
	}
}

func (s *commissionService) GetEntry(ctx context.Context, id primitive.ObjectID) (*models.CommissionLedgerEntry, error) {
	return s.commissionRepo.GetByID(ctx, id)
}

func (s *commissionService) GetPartnerLedger(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionLedgerEntry, int64, error) {
	if _, err := s.partnerRepo.GetByID(ctx, partnerID); err != nil {
		return nil, 0, err
	}
	return s.commissionRepo.GetByPartnerID(ctx, partnerID, params)
}

func (s *commissionService) SumCredited(ctx context.Context, partnerID primitive.ObjectID) (float64, error) {
	if _, err := s.partnerRepo.GetByID(ctx, partnerID); err != nil {
		return 0, err
	}
	return s.commissionRepo.SumCreditedByPartner(ctx, partnerID)
}

func (s *commissionService) ResetDailyTotals(ctx context.Context) (int64, error) {
	count, err := s.partnerRepo.ResetTodayCommission(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.WithField("partners", count).Info("Daily commission totals reset")
	return count, nil
}
