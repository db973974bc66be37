package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層
// 負責輸入檢查、違反不變量時的告警，以及成功後發布事件
// 本身也實作 Ledger，adapter 只依賴 Ledger 介面
type CoreUseCase struct {
	ledger    Ledger
	publisher EventPublisher
	logger    *zap.Logger
}

// CoreOption 定義了 CoreUseCase 的配置選項函數
type CoreOption func(*CoreUseCase)

// WithEventPublisher 設定成功變動後的事件發布者 (Optional)
func WithEventPublisher(p EventPublisher) CoreOption {
	return func(c *CoreUseCase) {
		c.publisher = p
	}
}

func NewCoreUseCase(ledger Ledger, logger *zap.Logger, opts ...CoreOption) *CoreUseCase {
	c := &CoreUseCase{
		ledger: ledger,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccount 建立帳戶
func (c *CoreUseCase) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	id, err := c.ledger.CreateAccount(ctx, description)
	if err != nil {
		c.reportFailure("create_account", domain.AccountID{}, err)
		return id, err
	}
	c.publish(ctx, domain.EventAccountCreated, id, 0, 0)
	return id, nil
}

// GetBalance 取得帳戶餘額
func (c *CoreUseCase) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	res, err := c.ledger.GetBalance(ctx, id)
	if err != nil {
		c.reportFailure("get_balance", id, err)
	}
	return res, err
}

// Deposit 存款
func (c *CoreUseCase) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	if amount < 0 {
		return domain.BalanceResult{}, domain.ErrInvalidAmount
	}
	res, err := c.ledger.Deposit(ctx, id, amount)
	if err != nil {
		c.reportFailure("deposit", id, err)
		return res, err
	}
	if res.Outcome == domain.OutcomeOK {
		c.publish(ctx, domain.EventDeposited, id, amount, res.Balance)
	}
	return res, nil
}

// Withdraw 提款
func (c *CoreUseCase) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	if amount < 0 {
		return domain.WithdrawResult{}, domain.ErrInvalidAmount
	}
	res, err := c.ledger.Withdraw(ctx, id, amount)
	if err != nil {
		c.reportFailure("withdraw", id, err)
		return res, err
	}
	if res.Outcome == domain.OutcomeOK {
		c.publish(ctx, domain.EventWithdrawn, id, amount, res.Balance)
	}
	return res, nil
}

// reportFailure 違反不變量必須大聲記錄，其他錯誤以 warn 記錄後交給呼叫端
func (c *CoreUseCase) reportFailure(op string, id domain.AccountID, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Stringer("account_id", id), zap.Error(err)}
	switch {
	case errors.Is(err, domain.ErrInvariantViolation):
		c.logger.Error("Ledger invariant violated, atomicity assumption broken", fields...)
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrBalanceOverflow):
		c.logger.Debug("Rejected ledger request", fields...)
	default:
		c.logger.Warn("Ledger backend failure", fields...)
	}
}

// publish 事件發布為 best effort: 變動已發生，發布失敗只記錄不回傳
func (c *CoreUseCase) publish(ctx context.Context, typ domain.EventType, id domain.AccountID, amount, balance int64) {
	if c.publisher == nil {
		return
	}
	event := domain.BalanceEvent{
		Type:      typ,
		AccountID: id,
		Amount:    amount,
		Balance:   balance,
		CreatedAt: time.Now().UnixNano(),
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Error("Failed to publish balance event",
			zap.String("type", string(typ)),
			zap.Stringer("account_id", id),
			zap.Error(err),
		)
	}
}

var _ Ledger = (*CoreUseCase)(nil)
