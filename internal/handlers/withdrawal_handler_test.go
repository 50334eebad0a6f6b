package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/services/audit"
	"github.com/peihutong/backend/internal/services/wallet"
	"github.com/peihutong/backend/internal/services/withdrawal"
)

const testAccount = "6222021234567890123"

// allowAllPerms lets every operator review; permission denial paths are
// covered by the service tests
type allowAllPerms struct{}

func (allowAllPerms) CanReviewWithdrawals(uuid.UUID) (bool, error) { return true, nil }

type noopNotifier struct{}

func (noopNotifier) WithdrawalStatusChanged(*models.Withdrawal) error { return nil }

type handlerEnv struct {
	db         *gorm.DB
	router     *gin.Engine
	providerID uuid.UUID
	operatorID uuid.UUID
	wallet     *models.Wallet
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Wallet{}, &models.Withdrawal{},
		&models.AuditLog{}, &models.OperationLog{},
	))

	env := &handlerEnv{
		db:         db,
		providerID: uuid.New(),
		operatorID: uuid.New(),
	}

	env.wallet = &models.Wallet{
		ProviderID: env.providerID,
		Currency:   models.CurrencyCNY,
		Available:  decimal.RequireFromString("1000"),
		Reserved:   decimal.Zero,
	}
	require.NoError(t, db.Create(env.wallet).Error)

	walletSvc := wallet.NewService(db)
	svc := withdrawal.NewService(db, walletSvc, audit.NewService(db),
		allowAllPerms{}, noopNotifier{}, withdrawal.Config{})
	h := NewWithdrawalHandler(svc)

	router := gin.New()

	asProvider := func(c *gin.Context) { c.Set("operator_id", env.providerID) }
	asOperator := func(c *gin.Context) { c.Set("operator_id", env.operatorID) }

	router.POST("/api/withdrawals", asProvider, h.RequestWithdrawal)
	admin := router.Group("/api/admin", asOperator)
	admin.GET("/withdrawals", h.ListWithdrawals)
	admin.GET("/withdrawals/:id", h.GetWithdrawal)
	admin.POST("/withdrawals/:id/review", h.ReviewWithdrawal)
	admin.POST("/withdrawals/:id/begin-transfer", h.BeginTransfer)
	admin.POST("/withdrawals/:id/confirm-transfer", h.ConfirmTransfer)
	admin.POST("/withdrawals/:id/mark-failed", h.MarkFailed)

	env.router = router
	return env
}

func (env *handlerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *handlerEnv) request(t *testing.T, amount string) uuid.UUID {
	rec := env.do(t, http.MethodPost, "/api/withdrawals", gin.H{
		"wallet_id": env.wallet.ID,
		"amount":    amount,
		"method":    "bank_transfer",
		"account":   testAccount,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestRequestWithdrawalMasksAccount(t *testing.T) {
	env := setupHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/api/withdrawals", gin.H{
		"wallet_id": env.wallet.ID,
		"amount":    "250",
		"method":    "alipay",
		"account":   testAccount,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `"account":"622****0123"`)
	assert.NotContains(t, body, testAccount)
}

func TestReviewAndConfirmFlow(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "400")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "approve", "note": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/confirm-transfer", id),
		gin.H{"transfer_no": "TX-1001", "confirm_text": "CONFIRM"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	var w models.Wallet
	require.NoError(t, env.db.First(&w, "id = ?", env.wallet.ID).Error)
	assert.True(t, w.Available.Equal(decimal.RequireFromString("600")))
	assert.True(t, w.Reserved.IsZero())
}

func TestConfirmWithWrongTextReturns400(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "100")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/confirm-transfer", id),
		gin.H{"transfer_no": "TX-1", "confirm_text": "yes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectWithoutNoteReturns400(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "100")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewTwiceReturns409(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "100")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "approve"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInsufficientBalanceReturns422(t *testing.T) {
	env := setupHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/api/withdrawals", gin.H{
		"wallet_id": env.wallet.ID,
		"amount":    "5000",
		"method":    "bank_transfer",
		"account":   testAccount,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetUnknownWithdrawalReturns404(t *testing.T) {
	env := setupHandlerEnv(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/withdrawals/%s", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWithdrawalsFiltersByStatus(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "100")
	env.request(t, "200")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "reject", "note": "bad account"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/withdrawals?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Withdrawals []json.RawMessage `json:"withdrawals"`
		Pagination  struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Withdrawals, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)
}

func TestMarkFailedReleasesReservation(t *testing.T) {
	env := setupHandlerEnv(t)
	id := env.request(t, "300")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/review", id),
		gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/begin-transfer", id), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%s/mark-failed", id),
		gin.H{"reason": "channel rejected the card"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var w models.Wallet
	require.NoError(t, env.db.First(&w, "id = ?", env.wallet.ID).Error)
	assert.True(t, w.Available.Equal(decimal.RequireFromString("1000")))
	assert.True(t, w.Reserved.IsZero())
}

func TestListWithZeroPagingStillReturnsRows(t *testing.T) {
	env := setupHandlerEnv(t)
	env.request(t, "100")

	rec := env.do(t, http.MethodGet, "/api/admin/withdrawals?page=0&page_size=0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Withdrawals []json.RawMessage `json:"withdrawals"`
		Pagination  struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Withdrawals, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)
}
