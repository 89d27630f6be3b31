package services

import (
	"context"
	"testing"

	"vxness/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newReferralHarness() (*fakeReferralRepo, *fakePartnerRepo, ReferralService) {
	referralRepo := newFakeReferralRepo()
	partnerRepo := newFakePartnerRepo()
	service := NewReferralService(referralRepo, partnerRepo, newTestLogger())
	return referralRepo, partnerRepo, service
}

func TestRecordReferral(t *testing.T) {
	_, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	partner := partnerRepo.add(&models.PartnerAccount{
		UserID:       primitive.NewObjectID(),
		Status:       models.PartnerStatusActive,
		ReferralCode: "AB12CD34",
	})

	userID := primitive.NewObjectID()
	edge, err := service.RecordReferral(ctx, userID, partner.ID, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, partner.ID, edge.ReferredBy)
	assert.Equal(t, models.ReferralEdgeStatusActive, edge.Status)

	// the direct referrer gains a level-1 count
	assert.Equal(t, int64(1), partnerRepo.partners[partner.ID].ReferralCounts["1"])
}

func TestRecordReferralIsImmutable(t *testing.T) {
	_, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	first := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive})
	second := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive})

	userID := primitive.NewObjectID()
	_, err := service.RecordReferral(ctx, userID, first.ID, "CODE1")
	require.NoError(t, err)

	_, err = service.RecordReferral(ctx, userID, second.ID, "CODE2")
	assert.True(t, models.IsStateConflictError(err))
}

func TestRecordReferralBumpsAncestorCounts(t *testing.T) {
	_, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	grandparent := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive})
	parent := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive, ParentID: &grandparent.ID})

	_, err := service.RecordReferral(ctx, primitive.NewObjectID(), parent.ID, "CODE")
	require.NoError(t, err)

	assert.Equal(t, int64(1), partnerRepo.partners[parent.ID].ReferralCounts["1"])
	assert.Equal(t, int64(1), partnerRepo.partners[grandparent.ID].ReferralCounts["2"])
}

func TestGetUplineChainOrderAndBound(t *testing.T) {
	referralRepo, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	// seven-deep ancestry; the walk must stop at five
	var parentID *primitive.ObjectID
	var partners []*models.PartnerAccount
	for i := 0; i < 7; i++ {
		p := partnerRepo.add(&models.PartnerAccount{
			UserID:   primitive.NewObjectID(),
			Status:   models.PartnerStatusActive,
			ParentID: parentID,
		})
		parentID = &p.ID
		partners = append(partners, p)
	}
	direct := partners[len(partners)-1]

	trader := primitive.NewObjectID()
	require.NoError(t, referralRepo.Create(ctx, &models.ReferralEdge{UserID: trader, ReferredBy: direct.ID}))

	chain, err := service.GetUplineChain(ctx, trader, 10)
	require.NoError(t, err)
	require.Len(t, chain, 5)
	assert.Equal(t, direct.ID, chain[0].ID)
	assert.Equal(t, partners[len(partners)-2].ID, chain[1].ID)
}

func TestGetUplineChainStopsAtInactivePartner(t *testing.T) {
	referralRepo, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	suspended := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusSuspended})
	direct := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive, ParentID: &suspended.ID})

	trader := primitive.NewObjectID()
	require.NoError(t, referralRepo.Create(ctx, &models.ReferralEdge{UserID: trader, ReferredBy: direct.ID}))

	chain, err := service.GetUplineChain(ctx, trader, 5)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, direct.ID, chain[0].ID)
}

func TestGetUplineChainNoEdge(t *testing.T) {
	_, _, service := newReferralHarness()

	chain, err := service.GetUplineChain(context.Background(), primitive.NewObjectID(), 5)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestGetDownlineTreeDepthBound(t *testing.T) {
	referralRepo, partnerRepo, service := newReferralHarness()
	ctx := context.Background()

	root := partnerRepo.add(&models.PartnerAccount{UserID: primitive.NewObjectID(), Status: models.PartnerStatusActive})

	// child user is a partner too, with one referred user of its own
	childUser := primitive.NewObjectID()
	require.NoError(t, referralRepo.Create(ctx, &models.ReferralEdge{UserID: childUser, ReferredBy: root.ID}))
	childPartner := partnerRepo.add(&models.PartnerAccount{UserID: childUser, Status: models.PartnerStatusActive, ParentID: &root.ID})

	grandchildUser := primitive.NewObjectID()
	require.NoError(t, referralRepo.Create(ctx, &models.ReferralEdge{UserID: grandchildUser, ReferredBy: childPartner.ID}))

	tree, err := service.GetDownlineTree(ctx, root.ID, 5)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, childUser, tree[0].UserID)
	assert.Equal(t, 1, tree[0].Level)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, grandchildUser, tree[0].Children[0].UserID)
	assert.Equal(t, 2, tree[0].Children[0].Level)

	// depth 1 prunes the grandchild
	shallow, err := service.GetDownlineTree(ctx, root.ID, 1)
	require.NoError(t, err)
	require.Len(t, shallow, 1)
	assert.Empty(t, shallow[0].Children)
}
