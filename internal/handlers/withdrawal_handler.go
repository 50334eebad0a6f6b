package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/services/wallet"
	"github.com/peihutong/backend/internal/services/withdrawal"
)

// WithdrawalHandler handles withdrawal requests and the admin review flow
type WithdrawalHandler struct {
	svc *withdrawal.Service
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(svc *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// withdrawalView is the outward shape of a withdrawal: identical to the
// model except the destination account appears masked
type withdrawalView struct {
	*models.Withdrawal
	Account models.MaskedAccount `json:"account"`
}

func view(w *models.Withdrawal) withdrawalView {
	return withdrawalView{Withdrawal: w, Account: w.MaskedAccount()}
}

// RequestWithdrawal creates a pending withdrawal and reserves the amount
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		WalletID uuid.UUID       `json:"wallet_id" binding:"required"`
		Amount   decimal.Decimal `json:"amount" binding:"required"`
		Method   string          `json:"method" binding:"required"`
		Account  string          `json:"account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.svc.RequestWithdrawal(actorID, input.WalletID, input.Amount,
		models.WithdrawalMethod(input.Method), input.Account)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view(w))
}

// ListWithdrawals lists withdrawals for the back office with pagination
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := models.WithdrawalStatus(c.Query("status"))

	withdrawals, total, err := h.svc.List(status, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	views := make([]withdrawalView, 0, len(withdrawals))
	for i := range withdrawals {
		views = append(views, view(&withdrawals[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"withdrawals": views,
		"pagination": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// GetWithdrawal gets a single withdrawal by ID
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}

	w, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(w))
}

// ReviewWithdrawal applies an approve or reject decision
func (h *WithdrawalHandler) ReviewWithdrawal(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	operatorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		Action string `json:"action" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.svc.Review(id, operatorID, withdrawal.Action(input.Action), input.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(w))
}

// BeginTransfer marks an approved withdrawal as processing
func (h *WithdrawalHandler) BeginTransfer(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	operatorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	w, err := h.svc.BeginTransfer(id, operatorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(w))
}

// ConfirmTransfer finalizes a payout with the channel's transfer reference
func (h *WithdrawalHandler) ConfirmTransfer(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	operatorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		TransferNo  string `json:"transfer_no" binding:"required"`
		ConfirmText string `json:"confirm_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.svc.ConfirmTransfer(id, operatorID, input.TransferNo, input.ConfirmText)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(w))
}

// MarkFailed records a failed payout and releases the reservation
func (h *WithdrawalHandler) MarkFailed(c *gin.Context) {
	id, ok := idFromPath(c)
	if !ok {
		return
	}
	operatorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.svc.MarkFailed(id, operatorID, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view(w))
}

// idFromPath parses the withdrawal id path parameter
func idFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal ID"})
		return uuid.Nil, false
	}
	return id, true
}

// actorFromContext reads the authenticated actor id set by the auth
// middleware
func actorFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("operator_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses. Operators get the
// specific refusal reason; this is a financial-control surface.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, withdrawal.ErrNotFound), errors.Is(err, wallet.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, withdrawal.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, withdrawal.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, withdrawal.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
