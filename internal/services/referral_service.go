package services

import (
	"context"
	"fmt"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralService interface {
	// Edge lifecycle
	RecordReferral(ctx context.Context, userID, partnerID primitive.ObjectID, code string) (*models.ReferralEdge, error)
	GetReferral(ctx context.Context, userID primitive.ObjectID) (*models.ReferralEdge, error)

	// Hierarchy reads
	GetUplineChain(ctx context.Context, userID primitive.ObjectID, maxDepth int) ([]*models.PartnerAccount, error)
	GetDownlineTree(ctx context.Context, partnerID primitive.ObjectID, depth int) ([]*models.DownlineNode, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	partnerRepo  interfaces.PartnerRepository
	logger       *logger.Logger
}

func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	partnerRepo interfaces.PartnerRepository,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		partnerRepo:  partnerRepo,
		logger:       log,
	}
}

// RecordReferral creates the one-time referral edge for a user and bumps the
// per-level referral counters up the partner chain. The edge is immutable: a
// user who already has one cannot be reassigned.
func (s *referralService) RecordReferral(ctx context.Context, userID, partnerID primitive.ObjectID, code string) (*models.ReferralEdge, error) {
	exists, err := s.referralRepo.ExistsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing referral: %w", err)
	}
	if exists {
		return nil, models.NewStateConflictError("user already has a referrer")
	}

	partner, err := s.partnerRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !partner.IsActive() {
		return nil, models.NewValidationError("partner_id", "partner is not active")
	}

	edge := &models.ReferralEdge{
		UserID:       userID,
		ReferredBy:   partnerID,
		ReferralCode: code,
		Level:        1,
		Status:       models.ReferralEdgeStatusActive,
	}

	if err := s.referralRepo.Create(ctx, edge); err != nil {
		return nil, err
	}

	s.bumpReferralCounts(ctx, partner)

	s.logger.WithUserID(userID).WithPartnerID(partnerID).Info("Referral recorded")

	return edge, nil
}

func (s *referralService) GetReferral(ctx context.Context, userID primitive.ObjectID) (*models.ReferralEdge, error) {
	return s.referralRepo.GetByUserID(ctx, userID)
}

// GetUplineChain returns the ordered ancestor list for a user: the direct
// referrer first (level 1), then its parent, and so on. The walk stops at a
// missing parent, an inactive partner, or maxDepth; the depth bound also caps
// any corruption-induced parent loop.
func (s *referralService) GetUplineChain(ctx context.Context, userID primitive.ObjectID, maxDepth int) ([]*models.PartnerAccount, error) {
	if maxDepth <= 0 || maxDepth > utils.MaxCommissionLevels {
		maxDepth = utils.MaxCommissionLevels
	}

	edge, err := s.referralRepo.GetByUserID(ctx, userID)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	var chain []*models.PartnerAccount
	next := &edge.ReferredBy

	for next != nil && len(chain) < maxDepth {
		partner, err := s.partnerRepo.GetByID(ctx, *next)
		if err != nil {
			if models.IsNotFoundError(err) {
				break
			}
			return nil, err
		}
		if !partner.IsActive() {
			break
		}

		chain = append(chain, partner)
		next = partner.ParentID
	}

	return chain, nil
}

// GetDownlineTree builds the referral tree under a partner, bounded at depth
// levels (at most 5).
func (s *referralService) GetDownlineTree(ctx context.Context, partnerID primitive.ObjectID, depth int) ([]*models.DownlineNode, error) {
	if depth <= 0 || depth > utils.MaxCommissionLevels {
		depth = utils.MaxCommissionLevels
	}

	if _, err := s.partnerRepo.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}

	return s.collectDownline(ctx, partnerID, 1, depth)
}

func (s *referralService) collectDownline(ctx context.Context, partnerID primitive.ObjectID, level, maxDepth int) ([]*models.DownlineNode, error) {
	edges, err := s.referralRepo.GetByReferrer(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	var nodes []*models.DownlineNode
	for _, edge := range edges {
		node := &models.DownlineNode{
			UserID:       edge.UserID,
			ReferralCode: edge.ReferralCode,
			Level:        level,
			TotalVolume:  edge.TotalVolume,
			JoinedAt:     edge.CreatedAt,
		}

		if level < maxDepth {
			// Referred users only have children when they are partners
			// themselves.
			if child, err := s.partnerRepo.GetByUserID(ctx, edge.UserID); err == nil {
				children, err := s.collectDownline(ctx, child.ID, level+1, maxDepth)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// bumpReferralCounts walks the partner chain and increments each ancestor's
// counter for the level the new user lands at. Failures here are logged, not
// surfaced: the edge is already durable.
func (s *referralService) bumpReferralCounts(ctx context.Context, direct *models.PartnerAccount) {
	current := direct
	for level := 1; level <= utils.MaxCommissionLevels && current != nil; level++ {
		if err := s.partnerRepo.IncrementReferralCount(ctx, current.ID, level); err != nil {
			s.logger.WithError(err).WithPartnerID(current.ID).Warn("Failed to bump referral count")
			return
		}

		if current.ParentID == nil {
			return
		}
		parent, err := s.partnerRepo.GetByID(ctx, *current.ParentID)
		if err != nil || !parent.IsActive() {
			return
		}
		current = parent
	}
}
