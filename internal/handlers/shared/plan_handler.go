package handlers

import (
	"vxness/internal/models"
	"vxness/internal/services"
	"vxness/internal/utils"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService services.PlanService
}

func NewPlanHandler(planService services.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// ListPlans returns all commission plans (admin)
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

// CreatePlan creates a commission plan (admin)
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var plan models.CommissionPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.planService.CreatePlan(c.Request.Context(), &plan); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Plan created successfully", plan)
}

// UpdatePlan updates a commission plan (admin)
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), planID, updates)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Plan updated successfully", plan)
}
