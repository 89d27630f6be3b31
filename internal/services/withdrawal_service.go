package services

import (
	"context"

	"vxness/internal/config"
	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WithdrawalService interface {
	// Partner commission-wallet payout workflow. A partner has at most one
	// withdrawal in flight.
	RequestWithdrawal(ctx context.Context, partnerID primitive.ObjectID, amount float64) (*models.PartnerAccount, error)
	ApproveWithdrawal(ctx context.Context, partnerID, actorID primitive.ObjectID) (*models.PartnerAccount, error)
	RejectWithdrawal(ctx context.Context, partnerID, actorID primitive.ObjectID, reason string) (*models.PartnerAccount, error)

	// ReverseCommission undoes a CREDITED ledger entry: debits the partner's
	// wallet and total earned (floored at zero) and marks the entry REVERSED.
	ReverseCommission(ctx context.Context, entryID, actorID primitive.ObjectID, reason string) (*models.CommissionLedgerEntry, error)
}

type withdrawalService struct {
	partnerRepo    interfaces.PartnerRepository
	commissionRepo interfaces.CommissionRepository
	tx             TxRunner
	cache          CacheService
	notifier       NotificationService
	cfg            *config.CommissionConfig
	logger         *logger.Logger
}

func NewWithdrawalService(
	partnerRepo interfaces.PartnerRepository,
	commissionRepo interfaces.CommissionRepository,
	tx TxRunner,
	cache CacheService,
	notifier NotificationService,
	cfg *config.CommissionConfig,
	log *logger.Logger,
) WithdrawalService {
	return &withdrawalService{
		partnerRepo:    partnerRepo,
		commissionRepo: commissionRepo,
		tx:             tx,
		cache:          cache,
		notifier:       notifier,
		cfg:            cfg,
		logger:         log,
	}
}

// RequestWithdrawal validates the amount against the configured minimum before
// any balance is consulted, then either reserves the funds for admin approval
// or finalizes immediately when approval is disabled.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, partnerID primitive.ObjectID, amount float64) (*models.PartnerAccount, error) {
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return nil, models.NewValidationError("amount", "amount must be positive")
	}
	if amount < s.cfg.MinWithdrawalAmount {
		return nil, models.NewValidationError("amount", "amount is below the minimum withdrawal")
	}

	lock, err := s.cache.Lock(ctx, PartnerLockKey(partnerID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("partner wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !partner.IsActive() {
		return nil, models.NewValidationError("partner_id", "partner is not active")
	}
	if partner.PendingWithdrawal > 0 {
		return nil, models.NewStateConflictError("a withdrawal is already pending")
	}
	if amount > partner.WalletBalance {
		return nil, models.NewInsufficientFundsError(amount, partner.WalletBalance)
	}

	if s.cfg.RequireApproval {
		if err := s.partnerRepo.ReserveWithdrawal(ctx, partnerID, amount); err != nil {
			return nil, err
		}
		partner.WalletBalance = utils.RoundMoney(partner.WalletBalance - amount)
		partner.PendingWithdrawal = amount
		s.logger.LogWithdrawalEvent(partnerID, "withdrawal_requested", amount)
	} else {
		if err := s.partnerRepo.FinalizeImmediateWithdrawal(ctx, partnerID, amount); err != nil {
			return nil, err
		}
		partner.WalletBalance = utils.RoundMoney(partner.WalletBalance - amount)
		partner.TotalWithdrawn = utils.RoundMoney(partner.TotalWithdrawn + amount)
		s.logger.LogWithdrawalEvent(partnerID, "withdrawal_completed", amount)
	}

	s.notifier.Notify(models.NotificationWithdrawalRequested, partner.UserID, map[string]interface{}{
		"amount": amount,
	})
	return partner, nil
}

func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, partnerID, actorID primitive.ObjectID) (*models.PartnerAccount, error) {
	lock, err := s.cache.Lock(ctx, PartnerLockKey(partnerID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("partner wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner.PendingWithdrawal <= 0 {
		return nil, models.NewStateConflictError("no pending withdrawal")
	}

	amount := partner.PendingWithdrawal
	if err := s.partnerRepo.SettleWithdrawal(ctx, partnerID, amount); err != nil {
		return nil, err
	}

	partner.PendingWithdrawal = 0
	partner.TotalWithdrawn = utils.RoundMoney(partner.TotalWithdrawn + amount)

	s.logger.WithField("actor_id", actorID.Hex()).LogWithdrawalEvent(partnerID, "withdrawal_approved", amount)
	s.notifier.Notify(models.NotificationWithdrawalApproved, partner.UserID, map[string]interface{}{
		"amount": amount,
	})
	return partner, nil
}

func (s *withdrawalService) RejectWithdrawal(ctx context.Context, partnerID, actorID primitive.ObjectID, reason string) (*models.PartnerAccount, error) {
	lock, err := s.cache.Lock(ctx, PartnerLockKey(partnerID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("partner wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner.PendingWithdrawal <= 0 {
		return nil, models.NewStateConflictError("no pending withdrawal")
	}

	amount := partner.PendingWithdrawal
	if err := s.partnerRepo.RefundWithdrawal(ctx, partnerID, amount); err != nil {
		return nil, err
	}

	partner.PendingWithdrawal = 0
	partner.WalletBalance = utils.RoundMoney(partner.WalletBalance + amount)

	s.logger.WithField("actor_id", actorID.Hex()).LogWithdrawalEvent(partnerID, "withdrawal_rejected", amount)
	s.notifier.Notify(models.NotificationWithdrawalRejected, partner.UserID, map[string]interface{}{
		"amount": amount,
		"reason": reason,
	})
	return partner, nil
}

func (s *withdrawalService) ReverseCommission(ctx context.Context, entryID, actorID primitive.ObjectID, reason string) (*models.CommissionLedgerEntry, error) {
	entry, err := s.commissionRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.CommissionEntryStatusCredited {
		return nil, models.NewStateConflictError("entry is already reversed")
	}

	lock, err := s.cache.Lock(ctx, PartnerLockKey(entry.PartnerID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("partner wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	partner, err := s.partnerRepo.GetByID(ctx, entry.PartnerID)
	if err != nil {
		return nil, err
	}

	newBalance := utils.FloorAtZero(utils.RoundMoney(partner.WalletBalance - entry.Amount))
	newTotalEarned := utils.FloorAtZero(utils.RoundMoney(partner.TotalEarned - entry.Amount))

	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		// MarkReversed filters on status CREDITED, so a concurrent reversal
		// loses here with a conflict instead of double-debiting.
		if err := s.commissionRepo.MarkReversed(txCtx, entry.ID, actorID, reason); err != nil {
			return nil, err
		}
		return nil, s.partnerRepo.ApplyCommissionReversal(txCtx, partner.ID, newBalance, newTotalEarned)
	})
	if err != nil {
		return nil, err
	}

	entry.Status = models.CommissionEntryStatusReversed
	entry.ReversedBy = &actorID
	entry.ReversalReason = reason

	s.logger.LogCommissionEvent(entry.TradeID, entry.PartnerID, entry.Level, entry.Amount, "reversed")
	s.notifier.Notify(models.NotificationCommissionReversed, partner.UserID, map[string]interface{}{
		"entry_id": entry.ID.Hex(),
		"amount":   entry.Amount,
		"reason":   reason,
	})
	return entry, nil
}

func (s *withdrawalService) unlock(ctx context.Context, lock *DistributedLock) {
	if err := s.cache.Unlock(ctx, lock); err != nil {
		s.logger.WithError(err).Warn("Failed to release partner lock")
	}
}
