package services

import (
	"context"

	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerService interface {
	CreatePartner(ctx context.Context, userID primitive.ObjectID, parentCode string, planID *primitive.ObjectID) (*models.PartnerAccount, error)
	GetPartner(ctx context.Context, id primitive.ObjectID) (*models.PartnerAccount, error)
	GetPartnerByCode(ctx context.Context, code string) (*models.PartnerAccount, error)
}

type partnerService struct {
	partnerRepo interfaces.PartnerRepository
	logger      *logger.Logger
}

func NewPartnerService(partnerRepo interfaces.PartnerRepository, log *logger.Logger) PartnerService {
	return &partnerService{
		partnerRepo: partnerRepo,
		logger:      log,
	}
}

// CreatePartner opens a partner account with a fresh referral code. When a
// parent code is given the new partner is attached one level below that
// parent, which is how the upline chain is assembled.
func (s *partnerService) CreatePartner(ctx context.Context, userID primitive.ObjectID, parentCode string, planID *primitive.ObjectID) (*models.PartnerAccount, error) {
	if _, err := s.partnerRepo.GetByUserID(ctx, userID); err == nil {
		return nil, models.NewStateConflictError("user already has a partner account")
	} else if !models.IsNotFoundError(err) {
		return nil, err
	}

	partner := &models.PartnerAccount{
		UserID:         userID,
		Status:         models.PartnerStatusActive,
		Level:          1,
		PlanID:         planID,
		ReferralCode:   utils.GenerateReferralCode(utils.ReferralCodeLength),
		ReferralCounts: map[string]int64{},
	}

	if parentCode != "" {
		parent, err := s.partnerRepo.GetByReferralCode(ctx, parentCode)
		if err != nil {
			if models.IsNotFoundError(err) {
				return nil, models.NewValidationError("parent_code", "unknown referral code")
			}
			return nil, err
		}
		if !parent.IsActive() {
			return nil, models.NewValidationError("parent_code", "parent partner is not active")
		}
		partner.ParentID = &parent.ID
		partner.Level = parent.Level + 1
	}

	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return nil, err
	}

	s.logger.WithPartnerID(partner.ID).WithUserID(userID).Info("Partner account created")
	return partner, nil
}

func (s *partnerService) GetPartner(ctx context.Context, id primitive.ObjectID) (*models.PartnerAccount, error) {
	return s.partnerRepo.GetByID(ctx, id)
}

func (s *partnerService) GetPartnerByCode(ctx context.Context, code string) (*models.PartnerAccount, error) {
	if code == "" {
		return nil, models.NewValidationError("code", "referral code is required")
	}
	return s.partnerRepo.GetByReferralCode(ctx, code)
}
