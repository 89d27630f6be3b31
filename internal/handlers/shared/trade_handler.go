package handlers

import (
	"vxness/internal/models"
	"vxness/internal/services"
	"vxness/internal/utils"

	"github.com/gin-gonic/gin"
)

type TradeHandler struct {
	commissionService services.CommissionService
}

func NewTradeHandler(commissionService services.CommissionService) *TradeHandler {
	return &TradeHandler{
		commissionService: commissionService,
	}
}

// ProcessTradeClosed receives a closed-trade event from the execution engine
// and fans commission out to the trader's upline.
func (h *TradeHandler) ProcessTradeClosed(c *gin.Context) {
	var event models.TradeClosedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.commissionService.ProcessTradeClose(c.Request.Context(), &event)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Trade processed", result)
}
