package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// CreateAccountRequest POST /accounts/ 的請求
type CreateAccountRequest struct {
	Description string `json:"description"`
}

// CreateAccountResponse POST /accounts/ 的回應
type CreateAccountResponse struct {
	ID string `json:"id"`
}

// AmountRequest 存款與提款共用的請求
type AmountRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

// ErrorResponse 400 / 500 的回應
type ErrorResponse struct {
	Error string `json:"error"`
}

var errMalformedBody = errors.New("malformed request body")

// LedgerHandler 將 HTTP 請求轉成 Ledger 呼叫
//
// 回應:
//
//	200 餘額 (JSON number)
//	201 {"id": "..."}
//	404 帳戶 ID (JSON string)
//	422 提款時的當下餘額 (JSON number)
//	400 {"error": "..."} 請求格式或金額錯誤
//	500 {"error": "internal server error"}
type LedgerHandler struct {
	ledger usecase.Ledger
	logger *zap.Logger
}

func NewLedgerHandler(ledger usecase.Ledger, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		logger: logger,
	}
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errMalformedBody)
		return
	}
	id, err := h.ledger.CreateAccount(c.Request.Context(), req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateAccountResponse{ID: id.String()})
}

// GetBalance 請求本體就是帳戶 ID 的 JSON 字串
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	var raw string
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.fail(c, errMalformedBody)
		return
	}
	id, err := domain.ParseAccountID(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.ledger.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeBalance(c, res)
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	id, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}
	res, err := h.ledger.Deposit(c.Request.Context(), id, amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeBalance(c, res)
}

func (h *LedgerHandler) Withdraw(c *gin.Context) {
	id, amount, ok := h.bindAmount(c)
	if !ok {
		return
	}
	res, err := h.ledger.Withdraw(c.Request.Context(), id, amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	switch res.Outcome {
	case domain.OutcomeAccountNotFound:
		c.JSON(http.StatusNotFound, res.AccountID.String())
	case domain.OutcomeInsufficientBalance:
		c.JSON(http.StatusUnprocessableEntity, res.Balance)
	default:
		c.JSON(http.StatusOK, res.Balance)
	}
}

func (h *LedgerHandler) bindAmount(c *gin.Context) (domain.AccountID, int64, bool) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errMalformedBody)
		return domain.AccountID{}, 0, false
	}
	id, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		h.fail(c, err)
		return domain.AccountID{}, 0, false
	}
	return id, req.Amount, true
}

func writeBalance(c *gin.Context, res domain.BalanceResult) {
	if res.Outcome == domain.OutcomeAccountNotFound {
		c.JSON(http.StatusNotFound, res.AccountID.String())
		return
	}
	c.JSON(http.StatusOK, res.Balance)
}

// fail 輸入錯誤回 400，其他錯誤一律回 500，不會回 404
func (h *LedgerHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, errMalformedBody) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if inputErr := domain.AsInputError(err); inputErr != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: inputErr.Error()})
		return
	}
	h.logger.Warn("HTTP request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
