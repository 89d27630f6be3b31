package services

import (
	"context"
	"time"

	"vxness/internal/config"
	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	GetWalletSummary(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// ListTransactionsByStatus drives the admin approval queue.
	ListTransactionsByStatus(ctx context.Context, status models.TransactionStatus, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// Deposit lifecycle
	CreateDeposit(ctx context.Context, userID primitive.ObjectID, amount float64, reference string) (*models.Transaction, error)
	ApproveDeposit(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error)
	RejectDeposit(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error)

	// Withdrawal lifecycle. Funds are reserved at request time.
	CreateWithdrawal(ctx context.Context, userID primitive.ObjectID, amount float64) (*models.Transaction, error)
	ApproveWithdrawal(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error)
	RejectWithdrawal(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error)

	// Admin entry points that dispatch on transaction type.
	ApproveTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error)
	RejectTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error)

	// DeleteTransaction removes a transaction and reverses its wallet effect.
	DeleteTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID) error
}

type walletService struct {
	walletRepo interfaces.WalletRepository
	txnRepo    interfaces.TransactionRepository
	bonuses    BonusService
	tx         TxRunner
	cache      CacheService
	notifier   NotificationService
	cfg        *config.CommissionConfig
	logger     *logger.Logger
}

func NewWalletService(
	walletRepo interfaces.WalletRepository,
	txnRepo interfaces.TransactionRepository,
	bonuses BonusService,
	tx TxRunner,
	cache CacheService,
	notifier NotificationService,
	cfg *config.CommissionConfig,
	log *logger.Logger,
) WalletService {
	return &walletService{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		bonuses:    bonuses,
		tx:         tx,
		cache:      cache,
		notifier:   notifier,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *walletService) GetOrCreateWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !models.IsNotFoundError(err) {
		return nil, err
	}

	wallet = &models.Wallet{
		UserID:   userID,
		Currency: utils.DefaultCurrency,
		IsActive: true,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) GetWalletSummary(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	return s.walletRepo.GetByUserID(ctx, userID)
}

func (s *walletService) ListTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	return s.txnRepo.GetByUserID(ctx, userID, params)
}

func (s *walletService) ListTransactionsByStatus(ctx context.Context, status models.TransactionStatus, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	switch status {
	case models.TransactionStatusPending, models.TransactionStatusApproved, models.TransactionStatusRejected:
	default:
		return nil, 0, models.NewValidationError("status", "must be pending, approved or rejected")
	}
	return s.txnRepo.GetByStatus(ctx, status, params)
}

// CreateDeposit records a pending deposit and reserves it in the pending
// bucket. Bonus eligibility is fixed here: the selected bonus amount rides on
// the transaction and only pays out when an admin approves it.
func (s *walletService) CreateDeposit(ctx context.Context, userID primitive.ObjectID, amount float64, reference string) (*models.Transaction, error) {
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return nil, models.NewValidationError("amount", "amount must be positive")
	}
	if amount < s.cfg.MinDepositAmount {
		return nil, models.NewValidationError("amount", "amount is below the minimum deposit")
	}

	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	approved, err := s.txnRepo.CountApprovedDeposits(ctx, userID)
	if err != nil {
		return nil, err
	}
	bonus, bonusAmount, err := s.bonuses.SelectApplicableBonus(ctx, amount, approved == 0)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:      userID,
		WalletID:    wallet.ID,
		Type:        models.TransactionTypeDeposit,
		Status:      models.TransactionStatusPending,
		Amount:      amount,
		BonusAmount: bonusAmount,
		TotalAmount: utils.RoundMoney(amount + bonusAmount),
		Currency:    wallet.Currency,
		Reference:   reference,
	}
	if bonus != nil {
		txn.BonusID = &bonus.ID
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(wallet.ID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.Create(txCtx, txn); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, wallet.ID, 0, amount, 0)
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogWalletEvent(userID, "deposit_created", amount, wallet.Currency)
	return txn, nil
}

// ApproveDeposit credits the deposit plus any bonus and activates the wagering
// lock.
func (s *walletService) ApproveDeposit(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != models.TransactionTypeDeposit {
		return nil, models.NewValidationError("transaction", "not a deposit")
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(txn.WalletID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	// Re-read under the lock; another approval may have settled it first.
	txn, err = s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return nil, models.NewStateConflictError("transaction already processed")
	}

	now := time.Now().UTC()
	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.MarkProcessed(txCtx, txn.ID, models.TransactionStatusApproved, actorID, "", now); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, txn.WalletID, txn.Amount+txn.BonusAmount, -txn.Amount, 0)
	})
	if err != nil {
		return nil, err
	}

	txn.Status = models.TransactionStatusApproved
	txn.ActorID = &actorID
	txn.ProcessedAt = &now

	if txn.BonusAmount > 0 && txn.BonusID != nil {
		if bonus, err := s.bonuses.GetBonus(ctx, *txn.BonusID); err == nil {
			if _, err := s.bonuses.Activate(ctx, txn.UserID, bonus, txn.ID, txn.BonusAmount); err != nil {
				s.logger.WithError(err).WithUserID(txn.UserID).Warn("Failed to activate deposit bonus")
			}
		}
	}

	s.logger.LogWalletEvent(txn.UserID, "deposit_approved", txn.TotalAmount, txn.Currency)
	s.notifier.Notify(models.NotificationDepositApproved, txn.UserID, map[string]interface{}{
		"amount": txn.Amount,
		"bonus":  txn.BonusAmount,
	})
	return txn, nil
}

func (s *walletService) RejectDeposit(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != models.TransactionTypeDeposit {
		return nil, models.NewValidationError("transaction", "not a deposit")
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(txn.WalletID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	txn, err = s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return nil, models.NewStateConflictError("transaction already processed")
	}

	now := time.Now().UTC()
	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.MarkProcessed(txCtx, txn.ID, models.TransactionStatusRejected, actorID, reason, now); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, txn.WalletID, 0, -txn.Amount, 0)
	})
	if err != nil {
		return nil, err
	}

	txn.Status = models.TransactionStatusRejected
	txn.Reason = reason

	s.logger.LogWalletEvent(txn.UserID, "deposit_rejected", txn.Amount, txn.Currency)
	s.notifier.Notify(models.NotificationDepositRejected, txn.UserID, map[string]interface{}{
		"amount": txn.Amount,
		"reason": reason,
	})
	return txn, nil
}

// CreateWithdrawal reserves the funds immediately: the balance drops at
// request time and the amount parks in pending_withdrawals until an admin
// decides.
func (s *walletService) CreateWithdrawal(ctx context.Context, userID primitive.ObjectID, amount float64) (*models.Transaction, error) {
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return nil, models.NewValidationError("amount", "amount must be positive")
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(wallet.ID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	// Re-read under the lock; the balance may have moved.
	wallet, err = s.walletRepo.GetByID(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	if amount > wallet.Balance {
		return nil, models.NewInsufficientFundsError(amount, wallet.Balance)
	}

	txn := &models.Transaction{
		UserID:      userID,
		WalletID:    wallet.ID,
		Type:        models.TransactionTypeWithdrawal,
		Status:      models.TransactionStatusPending,
		Amount:      amount,
		TotalAmount: amount,
		Currency:    wallet.Currency,
		Reference:   utils.GenerateReference(),
	}

	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.Create(txCtx, txn); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, wallet.ID, -amount, 0, amount)
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogWalletEvent(userID, "withdrawal_created", amount, wallet.Currency)
	s.notifier.Notify(models.NotificationWithdrawalRequested, userID, map[string]interface{}{
		"amount": amount,
	})
	return txn, nil
}

// ApproveWithdrawal releases the reservation; the balance was already debited
// at request time.
func (s *walletService) ApproveWithdrawal(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return nil, models.NewValidationError("transaction", "not a withdrawal")
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(txn.WalletID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	txn, err = s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return nil, models.NewStateConflictError("transaction already processed")
	}

	now := time.Now().UTC()
	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.MarkProcessed(txCtx, txn.ID, models.TransactionStatusApproved, actorID, "", now); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, txn.WalletID, 0, 0, -txn.Amount)
	})
	if err != nil {
		return nil, err
	}

	txn.Status = models.TransactionStatusApproved

	s.logger.LogWalletEvent(txn.UserID, "withdrawal_approved", txn.Amount, txn.Currency)
	s.notifier.Notify(models.NotificationWithdrawalApproved, txn.UserID, map[string]interface{}{
		"amount": txn.Amount,
	})
	return txn, nil
}

func (s *walletService) RejectWithdrawal(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return nil, models.NewValidationError("transaction", "not a withdrawal")
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(txn.WalletID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return nil, models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	txn, err = s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return nil, models.NewStateConflictError("transaction already processed")
	}

	now := time.Now().UTC()
	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if err := s.txnRepo.MarkProcessed(txCtx, txn.ID, models.TransactionStatusRejected, actorID, reason, now); err != nil {
			return nil, err
		}
		return nil, s.walletRepo.ApplyDelta(txCtx, txn.WalletID, txn.Amount, 0, -txn.Amount)
	})
	if err != nil {
		return nil, err
	}

	txn.Status = models.TransactionStatusRejected
	txn.Reason = reason

	s.logger.LogWalletEvent(txn.UserID, "withdrawal_rejected", txn.Amount, txn.Currency)
	s.notifier.Notify(models.NotificationWithdrawalRejected, txn.UserID, map[string]interface{}{
		"amount": txn.Amount,
		"reason": reason,
	})
	return txn, nil
}

func (s *walletService) ApproveTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch txn.Type {
	case models.TransactionTypeDeposit:
		return s.ApproveDeposit(ctx, transactionID, actorID)
	case models.TransactionTypeWithdrawal:
		return s.ApproveWithdrawal(ctx, transactionID, actorID)
	default:
		return nil, models.NewValidationError("transaction", "type cannot be approved")
	}
}

func (s *walletService) RejectTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID, reason string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch txn.Type {
	case models.TransactionTypeDeposit:
		return s.RejectDeposit(ctx, transactionID, actorID, reason)
	case models.TransactionTypeWithdrawal:
		return s.RejectWithdrawal(ctx, transactionID, actorID, reason)
	default:
		return nil, models.NewValidationError("transaction", "type cannot be rejected")
	}
}

// DeleteTransaction reverses the transaction's net wallet effect before the
// record is removed. A pending transaction only undoes its pending-bucket
// reservation; an approved one reverses the full movement.
func (s *walletService) DeleteTransaction(ctx context.Context, transactionID, actorID primitive.ObjectID) error {
	txn, err := s.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	lock, err := s.cache.Lock(ctx, WalletLockKey(txn.WalletID.Hex()), utils.AccountLockTTL)
	if err != nil {
		return models.NewStateConflictError("wallet is busy, retry")
	}
	defer s.unlock(ctx, lock)

	var balance, pendingDeposits, pendingWithdrawals float64
	switch {
	case txn.Type == models.TransactionTypeDeposit && txn.Status == models.TransactionStatusPending:
		pendingDeposits = -txn.Amount
	case txn.Type == models.TransactionTypeDeposit && txn.Status == models.TransactionStatusApproved:
		balance = -(txn.Amount + txn.BonusAmount)
	case txn.Type == models.TransactionTypeWithdrawal && txn.Status == models.TransactionStatusPending:
		balance = txn.Amount
		pendingWithdrawals = -txn.Amount
	case txn.Type == models.TransactionTypeWithdrawal && txn.Status == models.TransactionStatusApproved:
		balance = txn.Amount
	}

	_, err = s.tx.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		if balance != 0 || pendingDeposits != 0 || pendingWithdrawals != 0 {
			wallet, err := s.walletRepo.GetByID(txCtx, txn.WalletID)
			if err != nil {
				return nil, err
			}
			// Floor at zero: a reversal never drives a bucket negative.
			if wallet.Balance+balance < 0 {
				balance = -wallet.Balance
			}
			if wallet.PendingDeposits+pendingDeposits < 0 {
				pendingDeposits = -wallet.PendingDeposits
			}
			if wallet.PendingWithdrawals+pendingWithdrawals < 0 {
				pendingWithdrawals = -wallet.PendingWithdrawals
			}
			if err := s.walletRepo.ApplyDelta(txCtx, txn.WalletID, balance, pendingDeposits, pendingWithdrawals); err != nil {
				return nil, err
			}
		}
		return nil, s.txnRepo.Delete(txCtx, txn.ID)
	})
	if err != nil {
		return err
	}

	s.logger.WithUserID(txn.UserID).WithField("transaction_id", txn.ID.Hex()).Info("Transaction deleted and reversed")
	return nil
}

func (s *walletService) unlock(ctx context.Context, lock *DistributedLock) {
	if err := s.cache.Unlock(ctx, lock); err != nil {
		s.logger.WithError(err).Warn("Failed to release wallet lock")
	}
}
