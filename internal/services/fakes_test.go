package services

import (
	"context"
	"sync"
	"time"

	"vxness/internal/models"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the Mongo implementations' error
// contracts (NotFound on a missing document, StateConflict on a uniqueness
// violation) so the services under test behave as they do in production.

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stdout"})
	return log
}

// passthroughTx satisfies TxRunner without transactional semantics.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

// noopCache satisfies CacheService; locks always succeed.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) error { return nil }
func (noopCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, keys ...string) error        { return nil }
func (noopCache) Exists(ctx context.Context, key string) (bool, error)   { return false, nil }
func (noopCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (noopCache) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	return &DistributedLock{Key: key}, nil
}
func (noopCache) Unlock(ctx context.Context, lock *DistributedLock) error { return nil }
func (noopCache) Ping(ctx context.Context) error                          { return nil }

// serialLockCache hands out real per-key mutual exclusion: Lock blocks until
// the key is free. Used to exercise concurrent callers racing on one wallet.
type serialLockCache struct {
	noopCache
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSerialLockCache() *serialLockCache {
	return &serialLockCache{locks: map[string]*sync.Mutex{}}
}

func (c *serialLockCache) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	c.mu.Lock()
	keyLock, ok := c.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		c.locks[key] = keyLock
	}
	c.mu.Unlock()

	keyLock.Lock()
	return &DistributedLock{Key: key}, nil
}

func (c *serialLockCache) Unlock(ctx context.Context, lock *DistributedLock) error {
	c.mu.Lock()
	keyLock := c.locks[lock.Key]
	c.mu.Unlock()
	keyLock.Unlock()
	return nil
}

// recordingNotifier captures notification kinds for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	kinds []models.NotificationKind
}

func (n *recordingNotifier) Notify(kind models.NotificationKind, recipient primitive.ObjectID, vars map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

type fakeReferralRepo struct {
	edges map[primitive.ObjectID]*models.ReferralEdge
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{edges: map[primitive.ObjectID]*models.ReferralEdge{}}
}

func (r *fakeReferralRepo) Create(ctx context.Context, edge *models.ReferralEdge) error {
	if _, ok := r.edges[edge.UserID]; ok {
		return models.NewStateConflictError("referral edge already exists")
	}
	edge.ID = primitive.NewObjectID()
	edge.CreatedAt = time.Now().UTC()
	r.edges[edge.UserID] = edge
	return nil
}

func (r *fakeReferralRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.ReferralEdge, error) {
	edge, ok := r.edges[userID]
	if !ok {
		return nil, models.NewNotFoundError("referral edge", userID.Hex())
	}
	copied := *edge
	return &copied, nil
}

func (r *fakeReferralRepo) ExistsForUser(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	_, ok := r.edges[userID]
	return ok, nil
}

func (r *fakeReferralRepo) GetByReferrer(ctx context.Context, partnerID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	var result []*models.ReferralEdge
	for _, edge := range r.edges {
		if edge.ReferredBy == partnerID {
			copied := *edge
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeReferralRepo) ApplyTradeStats(ctx context.Context, userID primitive.ObjectID, volume, commission float64, tradedAt time.Time) error {
	edge, ok := r.edges[userID]
	if !ok {
		return models.NewNotFoundError("referral edge", userID.Hex())
	}
	edge.TotalVolume += volume
	edge.TotalCommission += commission
	if edge.FirstTradeAt == nil {
		edge.FirstTradeAt = &tradedAt
	}
	edge.LastTradeAt = &tradedAt
	return nil
}

func (r *fakeReferralRepo) AddCommission(ctx context.Context, userID primitive.ObjectID, commission float64) error {
	edge, ok := r.edges[userID]
	if !ok {
		return models.NewNotFoundError("referral edge", userID.Hex())
	}
	edge.TotalCommission += commission
	return nil
}

type fakePartnerRepo struct {
	partners map[primitive.ObjectID]*models.PartnerAccount
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: map[primitive.ObjectID]*models.PartnerAccount{}}
}

func (r *fakePartnerRepo) add(partner *models.PartnerAccount) *models.PartnerAccount {
	if partner.ID.IsZero() {
		partner.ID = primitive.NewObjectID()
	}
	if partner.ReferralCounts == nil {
		partner.ReferralCounts = map[string]int64{}
	}
	r.partners[partner.ID] = partner
	return partner
}

func (r *fakePartnerRepo) Create(ctx context.Context, partner *models.PartnerAccount) error {
	for _, existing := range r.partners {
		if existing.UserID == partner.UserID {
			return models.NewStateConflictError("partner already exists")
		}
	}
	r.add(partner)
	return nil
}

func (r *fakePartnerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PartnerAccount, error) {
	partner, ok := r.partners[id]
	if !ok {
		return nil, models.NewNotFoundError("partner", id.Hex())
	}
	copied := *partner
	return &copied, nil
}

func (r *fakePartnerRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.PartnerAccount, error) {
	for _, partner := range r.partners {
		if partner.UserID == userID {
			copied := *partner
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("partner", userID.Hex())
}

func (r *fakePartnerRepo) GetByReferralCode(ctx context.Context, code string) (*models.PartnerAccount, error) {
	for _, partner := range r.partners {
		if partner.ReferralCode == code {
			copied := *partner
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("partner", code)
}

func (r *fakePartnerRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if _, ok := r.partners[id]; !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	return nil
}

func (r *fakePartnerRepo) ApplyCommissionCredit(ctx context.Context, id primitive.ObjectID, amount, volume, lots float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.WalletBalance = utils.RoundMoney(partner.WalletBalance + amount)
	partner.TotalEarned = utils.RoundMoney(partner.TotalEarned + amount)
	partner.TodayCommission = utils.RoundMoney(partner.TodayCommission + amount)
	partner.TradedVolume += volume
	partner.TradedLots += lots
	return nil
}

func (r *fakePartnerRepo) ApplyCommissionReversal(ctx context.Context, id primitive.ObjectID, newBalance, newTotalEarned float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.WalletBalance = newBalance
	partner.TotalEarned = newTotalEarned
	return nil
}

func (r *fakePartnerRepo) ReserveWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.WalletBalance = utils.RoundMoney(partner.WalletBalance - amount)
	partner.PendingWithdrawal = utils.RoundMoney(partner.PendingWithdrawal + amount)
	return nil
}

func (r *fakePartnerRepo) SettleWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.PendingWithdrawal = utils.RoundMoney(partner.PendingWithdrawal - amount)
	partner.TotalWithdrawn = utils.RoundMoney(partner.TotalWithdrawn + amount)
	return nil
}

func (r *fakePartnerRepo) RefundWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.PendingWithdrawal = utils.RoundMoney(partner.PendingWithdrawal - amount)
	partner.WalletBalance = utils.RoundMoney(partner.WalletBalance + amount)
	return nil
}

func (r *fakePartnerRepo) FinalizeImmediateWithdrawal(ctx context.Context, id primitive.ObjectID, amount float64) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.WalletBalance = utils.RoundMoney(partner.WalletBalance - amount)
	partner.TotalWithdrawn = utils.RoundMoney(partner.TotalWithdrawn + amount)
	return nil
}

func (r *fakePartnerRepo) IncrementReferralCount(ctx context.Context, id primitive.ObjectID, level int) error {
	partner, ok := r.partners[id]
	if !ok {
		return models.NewNotFoundError("partner", id.Hex())
	}
	partner.ReferralCounts[models.PlanLevelKey(level)]++
	return nil
}

func (r *fakePartnerRepo) ResetTodayCommission(ctx context.Context) (int64, error) {
	var count int64
	for _, partner := range r.partners {
		if partner.TodayCommission != 0 {
			partner.TodayCommission = 0
			count++
		}
	}
	return count, nil
}

type fakePlanRepo struct {
	plans []*models.CommissionPlan
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *models.CommissionPlan) error {
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	plan.CreatedAt = time.Now().UTC()
	r.plans = append(r.plans, plan)
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionPlan, error) {
	for _, plan := range r.plans {
		if plan.ID == id {
			copied := *plan
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("plan", id.Hex())
}

func (r *fakePlanRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	for _, plan := range r.plans {
		if plan.ID == id {
			if active, ok := updates["is_active"].(bool); ok {
				plan.IsActive = active
			}
			return nil
		}
	}
	return models.NewNotFoundError("plan", id.Hex())
}

func (r *fakePlanRepo) List(ctx context.Context) ([]*models.CommissionPlan, error) {
	return r.plans, nil
}

func (r *fakePlanRepo) GetDefault(ctx context.Context) (*models.CommissionPlan, error) {
	for _, plan := range r.plans {
		if plan.IsDefault {
			copied := *plan
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("plan", "default")
}

func (r *fakePlanRepo) GetByName(ctx context.Context, name string) (*models.CommissionPlan, error) {
	for _, plan := range r.plans {
		if plan.Name == name {
			copied := *plan
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("plan", name)
}

func (r *fakePlanRepo) GetAnyActive(ctx context.Context) (*models.CommissionPlan, error) {
	for _, plan := range r.plans {
		if plan.IsActive {
			copied := *plan
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("plan", "active")
}

type tradeLevelKey struct {
	tradeID string
	level   int
}

type fakeCommissionRepo struct {
	entries map[primitive.ObjectID]*models.CommissionLedgerEntry
	seen    map[tradeLevelKey]bool
}

func newFakeCommissionRepo() *fakeCommissionRepo {
	return &fakeCommissionRepo{
		entries: map[primitive.ObjectID]*models.CommissionLedgerEntry{},
		seen:    map[tradeLevelKey]bool{},
	}
}

func (r *fakeCommissionRepo) Create(ctx context.Context, entry *models.CommissionLedgerEntry) error {
	key := tradeLevelKey{entry.TradeID, entry.Level}
	if r.seen[key] {
		return models.NewStateConflictError("commission entry already exists")
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	r.seen[key] = true
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeCommissionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionLedgerEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, models.NewNotFoundError("commission entry", id.Hex())
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeCommissionRepo) MarkReversed(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID, reason string) error {
	entry, ok := r.entries[id]
	if !ok {
		return models.NewNotFoundError("commission entry", id.Hex())
	}
	if entry.Status != models.CommissionEntryStatusCredited {
		return models.NewStateConflictError("entry is not credited")
	}
	now := time.Now().UTC()
	entry.Status = models.CommissionEntryStatusReversed
	entry.ReversedAt = &now
	entry.ReversedBy = &actor
	entry.ReversalReason = reason
	return nil
}

func (r *fakeCommissionRepo) GetByPartnerID(ctx context.Context, partnerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionLedgerEntry, int64, error) {
	var result []*models.CommissionLedgerEntry
	for _, entry := range r.entries {
		if entry.PartnerID == partnerID {
			copied := *entry
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeCommissionRepo) SumCreditedByPartner(ctx context.Context, partnerID primitive.ObjectID) (float64, error) {
	var sum float64
	for _, entry := range r.entries {
		if entry.PartnerID == partnerID && entry.Status == models.CommissionEntryStatusCredited {
			sum += entry.Amount
		}
	}
	return utils.RoundMoney(sum), nil
}

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[primitive.ObjectID]*models.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: map[primitive.ObjectID]*models.Wallet{}}
}

func (r *fakeWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet.ID = primitive.NewObjectID()
	wallet.CreatedAt = time.Now().UTC()
	r.wallets[wallet.ID] = wallet
	return nil
}

func (r *fakeWalletRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[id]
	if !ok {
		return nil, models.NewNotFoundError("wallet", id.Hex())
	}
	copied := *wallet
	return &copied, nil
}

func (r *fakeWalletRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, wallet := range r.wallets {
		if wallet.UserID == userID {
			copied := *wallet
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("wallet", userID.Hex())
}

func (r *fakeWalletRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[id]; !ok {
		return models.NewNotFoundError("wallet", id.Hex())
	}
	return nil
}

func (r *fakeWalletRepo) ApplyDelta(ctx context.Context, id primitive.ObjectID, balance, pendingDeposits, pendingWithdrawals float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[id]
	if !ok {
		return models.NewNotFoundError("wallet", id.Hex())
	}
	wallet.Balance = utils.RoundMoney(wallet.Balance + balance)
	wallet.PendingDeposits = utils.RoundMoney(wallet.PendingDeposits + pendingDeposits)
	wallet.PendingWithdrawals = utils.RoundMoney(wallet.PendingWithdrawals + pendingWithdrawals)
	return nil
}

type fakeTransactionRepo struct {
	mu   sync.Mutex
	txns map[primitive.ObjectID]*models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txns: map[primitive.ObjectID]*models.Transaction{}}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = time.Now().UTC()
	r.txns[txn.ID] = txn
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[id]
	if !ok {
		return nil, models.NewNotFoundError("transaction", id.Hex())
	}
	copied := *txn
	return &copied, nil
}

func (r *fakeTransactionRepo) MarkProcessed(ctx context.Context, id primitive.ObjectID, status models.TransactionStatus, actorID primitive.ObjectID, reason string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[id]
	if !ok {
		return models.NewNotFoundError("transaction", id.Hex())
	}
	if txn.Status != models.TransactionStatusPending {
		return models.NewStateConflictError("transaction already processed")
	}
	txn.Status = status
	txn.ActorID = &actorID
	if reason != "" {
		txn.Reason = reason
	}
	txn.ProcessedAt = &processedAt
	return nil
}

func (r *fakeTransactionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txns[id]; !ok {
		return models.NewNotFoundError("transaction", id.Hex())
	}
	delete(r.txns, id)
	return nil
}

func (r *fakeTransactionRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Transaction
	for _, txn := range r.txns {
		if txn.UserID == userID {
			copied := *txn
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeTransactionRepo) GetByStatus(ctx context.Context, status models.TransactionStatus, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Transaction
	for _, txn := range r.txns {
		if txn.Status == status {
			copied := *txn
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeTransactionRepo) CountApprovedDeposits(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, txn := range r.txns {
		if txn.UserID == userID && txn.Type == models.TransactionTypeDeposit && txn.Status == models.TransactionStatusApproved {
			count++
		}
	}
	return count, nil
}

type fakeBonusRepo struct {
	bonuses     []*models.Bonus
	userBonuses map[primitive.ObjectID]*models.UserBonus
}

func newFakeBonusRepo() *fakeBonusRepo {
	return &fakeBonusRepo{userBonuses: map[primitive.ObjectID]*models.UserBonus{}}
}

func (r *fakeBonusRepo) Create(ctx context.Context, bonus *models.Bonus) error {
	if bonus.ID.IsZero() {
		bonus.ID = primitive.NewObjectID()
	}
	bonus.CreatedAt = time.Now().UTC()
	r.bonuses = append(r.bonuses, bonus)
	return nil
}

func (r *fakeBonusRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bonus, error) {
	for _, bonus := range r.bonuses {
		if bonus.ID == id {
			copied := *bonus
			return &copied, nil
		}
	}
	return nil, models.NewNotFoundError("bonus", id.Hex())
}

func (r *fakeBonusRepo) ListActive(ctx context.Context) ([]*models.Bonus, error) {
	var result []*models.Bonus
	for _, bonus := range r.bonuses {
		if bonus.IsActive {
			copied := *bonus
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeBonusRepo) IncrementUsage(ctx context.Context, id primitive.ObjectID) error {
	for _, bonus := range r.bonuses {
		if bonus.ID == id {
			bonus.UsedCount++
			return nil
		}
	}
	return models.NewNotFoundError("bonus", id.Hex())
}

func (r *fakeBonusRepo) CreateUserBonus(ctx context.Context, userBonus *models.UserBonus) error {
	userBonus.ID = primitive.NewObjectID()
	userBonus.CreatedAt = time.Now().UTC()
	r.userBonuses[userBonus.ID] = userBonus
	return nil
}

func (r *fakeBonusRepo) GetUserBonusByID(ctx context.Context, id primitive.ObjectID) (*models.UserBonus, error) {
	ub, ok := r.userBonuses[id]
	if !ok {
		return nil, models.NewNotFoundError("user bonus", id.Hex())
	}
	copied := *ub
	return &copied, nil
}

func (r *fakeBonusRepo) GetActiveUserBonuses(ctx context.Context, userID primitive.ObjectID) ([]*models.UserBonus, error) {
	var result []*models.UserBonus
	for _, ub := range r.userBonuses {
		if ub.UserID == userID && ub.Status == models.UserBonusStatusActive {
			copied := *ub
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeBonusRepo) UpdateUserBonus(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	ub, ok := r.userBonuses[id]
	if !ok {
		return models.NewNotFoundError("user bonus", id.Hex())
	}
	if remaining, ok := updates["remaining_wager"].(float64); ok {
		ub.RemainingWager = remaining
	}
	if status, ok := updates["status"].(models.UserBonusStatus); ok {
		ub.Status = status
	}
	return nil
}

func (r *fakeBonusRepo) GetExpiredActive(ctx context.Context, now time.Time) ([]*models.UserBonus, error) {
	var result []*models.UserBonus
	for _, ub := range r.userBonuses {
		if ub.Status == models.UserBonusStatusActive && ub.IsExpired(now) {
			copied := *ub
			result = append(result, &copied)
		}
	}
	return result, nil
}
