package routes

import (
	handlers "vxness/internal/handlers/shared"
	"vxness/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWalletRoutes sets up routes for wallet and transaction functionality
func SetupWalletRoutes(r *gin.RouterGroup, walletHandler *handlers.WalletHandler, tradeHandler *handlers.TradeHandler) {
	// Internal webhook from the trade execution engine
	trades := r.Group("/trades")
	{
		trades.POST("/closed", tradeHandler.ProcessTradeClosed)
	}

	wallets := r.Group("/wallets")
	{
		wallets.GET("/:user_id", walletHandler.GetWallet)
		wallets.GET("/:user_id/transactions", walletHandler.ListTransactions)
		wallets.POST("/:user_id/deposits", walletHandler.CreateDeposit)
		wallets.POST("/:user_id/withdrawals", walletHandler.CreateWithdrawal)
	}

	// Admin approval workflow, attributed via X-Actor-ID
	admin := r.Group("/admin/transactions")
	admin.Use(middleware.ActorMiddleware())
	{
		admin.GET("", walletHandler.ListTransactionQueue)
		admin.PUT("/:id/approve", walletHandler.ApproveTransaction)
		admin.PUT("/:id/reject", walletHandler.RejectTransaction)
		admin.DELETE("/:id", walletHandler.DeleteTransaction)
	}
}
