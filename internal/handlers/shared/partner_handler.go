package handlers

import (
	"strconv"

	"vxness/internal/services"
	"vxness/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerHandler struct {
	partnerService    services.PartnerService
	referralService   services.ReferralService
	commissionService services.CommissionService
	withdrawalService services.WithdrawalService
}

func NewPartnerHandler(
	partnerService services.PartnerService,
	referralService services.ReferralService,
	commissionService services.CommissionService,
	withdrawalService services.WithdrawalService,
) *PartnerHandler {
	return &PartnerHandler{
		partnerService:    partnerService,
		referralService:   referralService,
		commissionService: commissionService,
		withdrawalService: withdrawalService,
	}
}

type createPartnerRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	ParentCode string `json:"parent_code"`
	PlanID     string `json:"plan_id"`
}

// CreatePartner opens a partner account
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var request createPartnerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user_id")
		return
	}

	var planID *primitive.ObjectID
	if request.PlanID != "" {
		id, err := primitive.ObjectIDFromHex(request.PlanID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid plan_id")
			return
		}
		planID = &id
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), userID, request.ParentCode, planID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Partner created successfully", partner)
}

// GetPartner returns a partner account
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partner, err := h.partnerService.GetPartner(c.Request.Context(), partnerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Partner retrieved successfully", partner)
}

type recordReferralRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	ReferralCode string `json:"referral_code" binding:"required"`
}

// RecordReferral attaches a new user to a partner's downline
func (h *PartnerHandler) RecordReferral(c *gin.Context) {
	var request recordReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user_id")
		return
	}

	partner, err := h.partnerService.GetPartnerByCode(c.Request.Context(), request.ReferralCode)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	edge, err := h.referralService.RecordReferral(c.Request.Context(), userID, partner.ID, request.ReferralCode)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Referral recorded successfully", edge)
}

// GetDownline returns the partner's referral tree, depth-bounded
func (h *PartnerHandler) GetDownline(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "5"))

	tree, err := h.referralService.GetDownlineTree(c.Request.Context(), partnerID, depth)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Downline retrieved successfully", tree)
}

// GetCommissions returns the partner's commission ledger
func (h *PartnerHandler) GetCommissions(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.commissionService.GetPartnerLedger(c.Request.Context(), partnerID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	credited, err := h.commissionService.SumCredited(c.Request.Context(), partnerID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Commissions retrieved successfully", gin.H{
		"entries":        entries,
		"total_credited": credited,
	}, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// RequestWithdrawal starts a partner commission-wallet payout
func (h *PartnerHandler) RequestWithdrawal(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var request withdrawalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	partner, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), partnerID, request.Amount)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal requested", partner)
}

// ApproveWithdrawal settles the partner's pending withdrawal (admin)
func (h *PartnerHandler) ApproveWithdrawal(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	actorID, ok := actorIDFromContext(c)
	if !ok {
		utils.BadRequestResponse(c, "Missing actor")
		return
	}

	partner, err := h.withdrawalService.ApproveWithdrawal(c.Request.Context(), partnerID, actorID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal approved", partner)
}

// RejectWithdrawal refunds the partner's pending withdrawal (admin)
func (h *PartnerHandler) RejectWithdrawal(c *gin.Context) {
	partnerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	actorID, ok := actorIDFromContext(c)
	if !ok {
		utils.BadRequestResponse(c, "Missing actor")
		return
	}

	var request rejectRequest
	if err := bindOptionalJSON(c, &request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	partner, err := h.withdrawalService.RejectWithdrawal(c.Request.Context(), partnerID, actorID, request.Reason)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Withdrawal rejected", partner)
}

// ReverseCommission undoes a credited ledger entry (admin)
func (h *PartnerHandler) ReverseCommission(c *gin.Context) {
	entryID, ok := pathObjectID(c, "entry_id")
	if !ok {
		return
	}
	actorID, ok := actorIDFromContext(c)
	if !ok {
		utils.BadRequestResponse(c, "Missing actor")
		return
	}

	var request rejectRequest
	if err := bindOptionalJSON(c, &request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	entry, err := h.withdrawalService.ReverseCommission(c.Request.Context(), entryID, actorID, request.Reason)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Commission reversed", entry)
}
