package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/services/wallet"
)

// WalletHandler exposes wallet balances to providers and the back office
type WalletHandler struct {
	svc *wallet.Service
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// GetMyWallet returns (creating if needed) the caller's wallet
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	providerID, ok := actorFromContext(c)
	if !ok {
		return
	}

	currency := models.Currency(c.DefaultQuery("currency", string(models.CurrencyCNY)))
	w, err := h.svc.GetOrCreateWallet(providerID, currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

// GetWallet returns a wallet by ID for the back office
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet ID"})
		return
	}

	w, err := h.svc.GetWallet(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": w})
}
