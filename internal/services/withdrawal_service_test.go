package services

import (
	"context"
	"testing"

	"vxness/internal/config"
	"vxness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type withdrawalHarness struct {
	partnerRepo    *fakePartnerRepo
	commissionRepo *fakeCommissionRepo
	notifier       *recordingNotifier
	cfg            *config.CommissionConfig
	service        WithdrawalService
}

func newWithdrawalHarness(requireApproval bool) *withdrawalHarness {
	h := &withdrawalHarness{
		partnerRepo:    newFakePartnerRepo(),
		commissionRepo: newFakeCommissionRepo(),
		notifier:       &recordingNotifier{},
		cfg:            &config.CommissionConfig{MaxLevels: 5, MinWithdrawalAmount: 50, RequireApproval: requireApproval},
	}
	h.service = NewWithdrawalService(h.partnerRepo, h.commissionRepo, passthroughTx{}, noopCache{}, h.notifier, h.cfg, newTestLogger())
	return h
}

func (h *withdrawalHarness) seedPartner(balance float64) *models.PartnerAccount {
	return h.partnerRepo.add(&models.PartnerAccount{
		UserID:        primitive.NewObjectID(),
		Status:        models.PartnerStatusActive,
		WalletBalance: balance,
	})
}

func TestRequestWithdrawalBelowMinimumPrecedesBalanceCheck(t *testing.T) {
	h := newWithdrawalHarness(true)

	// wallet holds 40, minimum is 50: the amount check must fire, not the
	// balance check
	partner := h.seedPartner(40)
	_, err := h.service.RequestWithdrawal(context.Background(), partner.ID, 40)
	assert.True(t, models.IsValidationError(err))
	assert.False(t, models.IsInsufficientFundsError(err))
}

func TestRequestWithdrawalInsufficientFunds(t *testing.T) {
	h := newWithdrawalHarness(true)

	partner := h.seedPartner(60)
	_, err := h.service.RequestWithdrawal(context.Background(), partner.ID, 100)
	assert.True(t, models.IsInsufficientFundsError(err))
}

func TestRequestWithdrawalReservesWhenApprovalRequired(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(200)
	_, err := h.service.RequestWithdrawal(ctx, partner.ID, 80)
	require.NoError(t, err)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 120.0, stored.WalletBalance)
	assert.Equal(t, 80.0, stored.PendingWithdrawal)
	assert.Equal(t, 0.0, stored.TotalWithdrawn)
}

func TestRequestWithdrawalFinalizesWhenApprovalDisabled(t *testing.T) {
	h := newWithdrawalHarness(false)
	ctx := context.Background()

	partner := h.seedPartner(200)
	_, err := h.service.RequestWithdrawal(ctx, partner.ID, 80)
	require.NoError(t, err)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 120.0, stored.WalletBalance)
	assert.Equal(t, 0.0, stored.PendingWithdrawal)
	assert.Equal(t, 80.0, stored.TotalWithdrawn)
}

func TestRequestWithdrawalRejectsSecondPending(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(500)
	_, err := h.service.RequestWithdrawal(ctx, partner.ID, 100)
	require.NoError(t, err)

	_, err = h.service.RequestWithdrawal(ctx, partner.ID, 100)
	assert.True(t, models.IsStateConflictError(err))
}

func TestApproveWithdrawalSettles(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(200)
	_, err := h.service.RequestWithdrawal(ctx, partner.ID, 80)
	require.NoError(t, err)

	_, err = h.service.ApproveWithdrawal(ctx, partner.ID, primitive.NewObjectID())
	require.NoError(t, err)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 120.0, stored.WalletBalance)
	assert.Equal(t, 0.0, stored.PendingWithdrawal)
	assert.Equal(t, 80.0, stored.TotalWithdrawn)
}

func TestRejectWithdrawalRefundsPartner(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(200)
	_, err := h.service.RequestWithdrawal(ctx, partner.ID, 80)
	require.NoError(t, err)

	_, err = h.service.RejectWithdrawal(ctx, partner.ID, primitive.NewObjectID(), "bank details invalid")
	require.NoError(t, err)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 200.0, stored.WalletBalance)
	assert.Equal(t, 0.0, stored.PendingWithdrawal)
	assert.Equal(t, 0.0, stored.TotalWithdrawn)
}

func TestApproveWithdrawalWithoutPendingConflicts(t *testing.T) {
	h := newWithdrawalHarness(true)

	partner := h.seedPartner(200)
	_, err := h.service.ApproveWithdrawal(context.Background(), partner.ID, primitive.NewObjectID())
	assert.True(t, models.IsStateConflictError(err))

	_, err = h.service.RejectWithdrawal(context.Background(), partner.ID, primitive.NewObjectID(), "none")
	assert.True(t, models.IsStateConflictError(err))
}

func (h *withdrawalHarness) seedCreditedEntry(t *testing.T, partnerID primitive.ObjectID, amount float64) *models.CommissionLedgerEntry {
	t.Helper()
	entry := &models.CommissionLedgerEntry{
		PartnerID: partnerID,
		TraderID:  primitive.NewObjectID(),
		TradeID:   "T-9001",
		Level:     1,
		Amount:    amount,
		Status:    models.CommissionEntryStatusCredited,
	}
	require.NoError(t, h.commissionRepo.Create(context.Background(), entry))
	return entry
}

func TestReverseCommissionDebitsAndMarks(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(100)
	h.partnerRepo.partners[partner.ID].TotalEarned = 100
	entry := h.seedCreditedEntry(t, partner.ID, 30)

	actor := primitive.NewObjectID()
	reversed, err := h.service.ReverseCommission(ctx, entry.ID, actor, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionEntryStatusReversed, reversed.Status)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 70.0, stored.WalletBalance)
	assert.Equal(t, 70.0, stored.TotalEarned)

	kept := h.commissionRepo.entries[entry.ID]
	assert.Equal(t, models.CommissionEntryStatusReversed, kept.Status)
	assert.NotNil(t, kept.ReversedAt)
	assert.Equal(t, "chargeback", kept.ReversalReason)
}

func TestReverseCommissionIsOneWay(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	partner := h.seedPartner(100)
	entry := h.seedCreditedEntry(t, partner.ID, 30)

	actor := primitive.NewObjectID()
	_, err := h.service.ReverseCommission(ctx, entry.ID, actor, "first")
	require.NoError(t, err)

	_, err = h.service.ReverseCommission(ctx, entry.ID, actor, "second")
	assert.True(t, models.IsStateConflictError(err))

	// debited once only
	assert.Equal(t, 70.0, h.partnerRepo.partners[partner.ID].WalletBalance)
}

func TestReverseCommissionFloorsAtZero(t *testing.T) {
	h := newWithdrawalHarness(true)
	ctx := context.Background()

	// the partner already withdrew most of the balance
	partner := h.seedPartner(10)
	h.partnerRepo.partners[partner.ID].TotalEarned = 10
	entry := h.seedCreditedEntry(t, partner.ID, 30)

	_, err := h.service.ReverseCommission(ctx, entry.ID, primitive.NewObjectID(), "chargeback")
	require.NoError(t, err)

	stored := h.partnerRepo.partners[partner.ID]
	assert.Equal(t, 0.0, stored.WalletBalance)
	assert.Equal(t, 0.0, stored.TotalEarned)
}
