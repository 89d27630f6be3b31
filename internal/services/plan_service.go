package services

import (
	"context"
	"strings"

	"vxness/internal/config"
	"vxness/internal/models"
	"vxness/internal/repositories/interfaces"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanService interface {
	CreatePlan(ctx context.Context, plan *models.CommissionPlan) error
	GetPlan(ctx context.Context, id primitive.ObjectID) (*models.CommissionPlan, error)
	UpdatePlan(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.CommissionPlan, error)
	ListPlans(ctx context.Context) ([]*models.CommissionPlan, error)

	// Resolve picks the plan a partner's commission is computed from.
	Resolve(ctx context.Context, partner *models.PartnerAccount) (*models.CommissionPlan, error)
}

type planService struct {
	planRepo interfaces.PlanRepository
	cfg      *config.CommissionConfig
	logger   *logger.Logger
}

func NewPlanService(planRepo interfaces.PlanRepository, cfg *config.CommissionConfig, log *logger.Logger) PlanService {
	return &planService{
		planRepo: planRepo,
		cfg:      cfg,
		logger:   log,
	}
}

func (s *planService) CreatePlan(ctx context.Context, plan *models.CommissionPlan) error {
	if err := s.validatePlan(plan); err != nil {
		return err
	}
	return s.planRepo.Create(ctx, plan)
}

func (s *planService) GetPlan(ctx context.Context, id primitive.ObjectID) (*models.CommissionPlan, error) {
	return s.planRepo.GetByID(ctx, id)
}

func (s *planService) UpdatePlan(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.CommissionPlan, error) {
	if _, err := s.planRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if rates, ok := updates["rates"].(map[string]float64); ok {
		if err := validateRates(rates); err != nil {
			return nil, err
		}
	}
	if err := s.planRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.planRepo.GetByID(ctx, id)
}

func (s *planService) ListPlans(ctx context.Context) ([]*models.CommissionPlan, error) {
	return s.planRepo.List(ctx)
}

// Resolve returns the partner's assigned plan if it is still active, then the
// plan flagged default, then the configured default plan name, then any active
// plan. No active plan anywhere means commission cannot be computed for this
// partner.
func (s *planService) Resolve(ctx context.Context, partner *models.PartnerAccount) (*models.CommissionPlan, error) {
	if partner.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *partner.PlanID)
		if err == nil && plan.IsActive {
			return plan, nil
		}
		if err != nil && !models.IsNotFoundError(err) {
			return nil, err
		}
	}

	plan, err := s.planRepo.GetDefault(ctx)
	if err == nil && plan.IsActive {
		return plan, nil
	}
	if err != nil && !models.IsNotFoundError(err) {
		return nil, err
	}

	if s.cfg.DefaultPlanName != "" {
		plan, err = s.planRepo.GetByName(ctx, s.cfg.DefaultPlanName)
		if err == nil && plan.IsActive {
			return plan, nil
		}
		if err != nil && !models.IsNotFoundError(err) {
			return nil, err
		}
	}

	plan, err = s.planRepo.GetAnyActive(ctx)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, models.NewNotFoundError("commission plan", "active")
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) validatePlan(plan *models.CommissionPlan) error {
	if strings.TrimSpace(plan.Name) == "" {
		return models.NewValidationError("name", "name is required")
	}
	if plan.CommissionType != models.CommissionTypePerLot && plan.CommissionType != models.CommissionTypePercentage {
		return models.NewValidationError("commission_type", "must be per_lot or percentage")
	}
	if plan.MaxLevels < 1 || plan.MaxLevels > models.MaxPlanLevels {
		return models.NewValidationError("max_levels", "must be between 1 and 5")
	}
	if plan.CommissionType == models.CommissionTypePercentage &&
		!plan.FromSpread && !plan.FromCommission && !plan.FromSwap {
		return models.NewValidationError("sources", "percentage plans need at least one source enabled")
	}
	if plan.MinWithdrawal < 0 {
		return models.NewValidationError("min_withdrawal", "must not be negative")
	}
	return validateRates(plan.Rates)
}

func validateRates(rates map[string]float64) error {
	for key, rate := range rates {
		if models.PlanLevelKey(1) != key && models.PlanLevelKey(2) != key &&
			models.PlanLevelKey(3) != key && models.PlanLevelKey(4) != key &&
			models.PlanLevelKey(5) != key {
			return models.NewValidationError("rates", "rate keys must be levels 1 through 5")
		}
		if rate < 0 {
			return models.NewValidationError("rates", "rates must not be negative")
		}
	}
	return nil
}
