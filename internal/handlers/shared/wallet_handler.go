package handlers

import (
	"errors"
	"io"

	"vxness/internal/models"
	"vxness/internal/services"
	"vxness/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// actorIDFromContext returns the admin actor set by the attribution middleware.
func actorIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("actor_id")
	if !exists {
		return primitive.NilObjectID, false
	}
	actorID, ok := value.(primitive.ObjectID)
	return actorID, ok
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindOptionalJSON binds the request body if present; an empty body is fine.
func bindOptionalJSON(c *gin.Context, target interface{}) error {
	if err := c.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// GetWallet returns the wallet summary for a user
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := pathObjectID(c, "user_id")
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWalletSummary(c.Request.Context(), userID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Wallet retrieved successfully", wallet)
}

// ListTransactions returns the user's transaction history
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := pathObjectID(c, "user_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.walletService.ListTransactions(c.Request.Context(), userID, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", transactions, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// ListTransactionQueue returns transactions by status for the admin approval
// workflow; defaults to the pending queue.
func (h *WalletHandler) ListTransactionQueue(c *gin.Context) {
	status := models.TransactionStatus(c.DefaultQuery("status", string(models.TransactionStatusPending)))

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.walletService.ListTransactionsByStatus(c.Request.Context(), status, params)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", transactions, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

type depositRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference"`
}

// CreateDeposit records a pending deposit for admin approval
func (h *WalletHandler) CreateDeposit(c *gin.Context) {
	userID, ok := pathObjectID(c, "user_id")
	if !ok {
		return
	}

	var request depositRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if request.Reference == "" {
		request.Reference = utils.GenerateReference()
	}

	txn, err := h.walletService.CreateDeposit(c.Request.Context(), userID, request.Amount, request.Reference)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Deposit created successfully", txn)
}

type withdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateWithdrawal reserves funds and records a pending withdrawal
func (h *WalletHandler) CreateWithdrawal(c *gin.Context) {
	userID, ok := pathObjectID(c, "user_id")
	if !ok {
		return
	}

	var request withdrawalRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	txn, err := h.walletService.CreateWithdrawal(c.Request.Context(), userID, request.Amount)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Withdrawal created successfully", txn)
}

// ApproveTransaction approves a pending deposit or withdrawal (admin)
func (h *WalletHandler) ApproveTransaction(c *gin.Context) {
	txnID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	actorID, ok := actorIDFromContext(c)
	if !ok {
		utils.BadRequestResponse(c, "Missing actor")
		return
	}

	txn, err := h.walletService.ApproveTransaction(c.Request.Context(), txnID, actorID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Transaction approved", txn)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectTransaction rejects a pending deposit or withdrawal (admin)
func (h *WalletHandler) RejectTransaction(c *gin.Context) {
	txnID, ok := pathObjectID(c, "id")
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

	txn, err := h.walletService.RejectTransaction(c.Request.Context(), txnID, actorID, request.Reason)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Transaction rejected", txn)
}

// DeleteTransaction removes a transaction and reverses its wallet effect (admin)
func (h *WalletHandler) DeleteTransaction(c *gin.Context) {
	txnID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	actorID, ok := actorIDFromContext(c)
	if !ok {
		utils.BadRequestResponse(c, "Missing actor")
		return
	}

	if err := h.walletService.DeleteTransaction(c.Request.Context(), txnID, actorID); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Transaction deleted", nil)
}
