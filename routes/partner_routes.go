package routes

import (
	handlers "vxness/internal/handlers/shared"
	"vxness/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPartnerRoutes sets up routes for the partner program
func SetupPartnerRoutes(r *gin.RouterGroup, partnerHandler *handlers.PartnerHandler, planHandler *handlers.PlanHandler) {
	partners := r.Group("/partners")
	{
		partners.POST("", partnerHandler.CreatePartner)
		partners.GET("/:id", partnerHandler.GetPartner)
		partners.GET("/:id/downline", partnerHandler.GetDownline)
		partners.GET("/:id/commissions", partnerHandler.GetCommissions)
		partners.POST("/:id/withdrawals", partnerHandler.RequestWithdrawal)
	}

	referrals := r.Group("/referrals")
	{
		referrals.POST("", partnerHandler.RecordReferral)
	}

	// Admin workflow, attributed via X-Actor-ID
	admin := r.Group("/admin")
	admin.Use(middleware.ActorMiddleware())
	{
		admin.PUT("/partners/:id/withdrawals/approve", partnerHandler.ApproveWithdrawal)
		admin.PUT("/partners/:id/withdrawals/reject", partnerHandler.RejectWithdrawal)
		admin.PUT("/commissions/:entry_id/reverse", partnerHandler.ReverseCommission)

		admin.GET("/plans", planHandler.ListPlans)
		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:id", planHandler.UpdatePlan)
	}
}
