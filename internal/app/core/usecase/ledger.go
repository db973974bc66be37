package usecase

import (
	"context"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
)

// Ledger 是帳務系統的介面
// 記憶體、SQL、遠端 Client 都實作同一個介面，呼叫端不可依實作分支
//
// 帳戶不存在 / 餘額不足以 Result 回傳 (error 為 nil)；
// error 只代表基礎設施失敗、輸入錯誤或 domain.ErrInvariantViolation
type Ledger interface {
	// CreateAccount 建立帳戶，餘額為 0
	CreateAccount(ctx context.Context, description string) (domain.AccountID, error)
	// GetBalance 取得帳戶餘額
	GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error)
	// Deposit 存款，不會因餘額失敗
	Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error)
	// Withdraw 提款，餘額不足時餘額不變
	Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error)
}

// EventPublisher 帳務事件發布者 (例如 Kafka)
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BalanceEvent) error
}
