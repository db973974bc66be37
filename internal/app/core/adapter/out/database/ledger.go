package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/database"
	"github.com/JoeShih716/go-account-ledger/pkg/retry"
)

// createAccountsTable 冪等建表，MySQL / PostgreSQL / SQLite 皆可執行
// CHECK 只是最後一道防線，正確性來自 Withdraw 的條件式 UPDATE
const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	id          CHAR(36) NOT NULL PRIMARY KEY,
	description TEXT     NOT NULL,
	balance     BIGINT   NOT NULL DEFAULT 0 CHECK (balance >= 0)
)`

const (
	defaultSchemaAttempts = 3
	defaultSchemaInterval = 2 * time.Second
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID          string `gorm:"primaryKey;type:char(36)"`
	Description string
	Balance     int64
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// SQLLedger 以關聯式資料庫實作 usecase.Ledger
// 不使用交易或悲觀鎖，每個變動都是單一條件式 UPDATE
type SQLLedger struct {
	client *database.Client

	schemaAttempts int
	schemaInterval time.Duration
}

// Option 定義 SQLLedger 的配置選項函數
type Option func(*SQLLedger)

// WithSchemaRetry 設定建表的重試次數與間隔
func WithSchemaRetry(attempts int, interval time.Duration) Option {
	return func(l *SQLLedger) {
		l.schemaAttempts = attempts
		l.schemaInterval = interval
	}
}

// NewSQLLedger 建立 SQLLedger 並確保 accounts 表存在
//
// 建表會重試有限次數 (預設 3 次)，容忍資料庫仍在啟動中；
// 全部失敗時回傳最後一次錯誤，此 Ledger 不可使用
func NewSQLLedger(ctx context.Context, client *database.Client, opts ...Option) (*SQLLedger, error) {
	ledger := &SQLLedger{
		client:         client,
		schemaAttempts: defaultSchemaAttempts,
		schemaInterval: defaultSchemaInterval,
	}
	for _, opt := range opts {
		opt(ledger)
	}

	err := retry.Do(ctx, ledger.schemaAttempts, ledger.schemaInterval, func(int) error {
		return client.DB().WithContext(ctx).Exec(createAccountsTable).Error
	})
	if err != nil {
		return nil, fmt.Errorf("init accounts schema: %w", err)
	}
	return ledger, nil
}

func (ledger *SQLLedger) db(ctx context.Context) *gorm.DB {
	return ledger.client.DB().WithContext(ctx)
}

// CreateAccount 新增一列，餘額為 0
func (ledger *SQLLedger) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	id := domain.NewAccountID()
	row := sqlAccount{
		ID:          id.String(),
		Description: description,
		Balance:     0,
	}

	result := ledger.db(ctx).Create(&row)
	if result.Error != nil {
		return domain.AccountID{}, fmt.Errorf("insert account: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return domain.AccountID{}, fmt.Errorf("%w: insert account affected %d rows, expected 1",
			domain.ErrInvariantViolation, result.RowsAffected)
	}
	return id, nil
}

// GetBalance 取得帳戶餘額，查無資料列即為帳戶不存在
func (ledger *SQLLedger) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	balance, found, err := ledger.readBalance(ctx, id)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	if !found {
		return domain.BalanceNotFound(id), nil
	}
	return domain.BalanceFound(balance), nil
}

// Deposit 單一 UPDATE 加款，沒有下限條件
//
//	UPDATE accounts SET balance = balance + ? WHERE id = ? AND balance <= MaxInt64 - ?
//
// 上限條件讓溢位在所有驅動下行為一致 (SQLite 不會報錯，而是把結果轉成 REAL)
// 1 row: 重新讀取餘額；0 rows: 再讀一次區分帳戶不存在與溢位
func (ledger *SQLLedger) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	if amount < 0 {
		return domain.BalanceResult{}, domain.ErrInvalidAmount
	}

	result := ledger.db(ctx).
		Model(&sqlAccount{}).
		Where("id = ? AND balance <= ?", id.String(), math.MaxInt64-amount).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return domain.BalanceResult{}, fmt.Errorf("deposit account %s: %w", id, result.Error)
	}

	switch result.RowsAffected {
	case 0:
		_, found, err := ledger.readBalance(ctx, id)
		if err != nil {
			return domain.BalanceResult{}, err
		}
		if !found {
			return domain.BalanceNotFound(id), nil
		}
		return domain.BalanceResult{}, domain.ErrBalanceOverflow
	case 1:
		balance, found, err := ledger.readBalance(ctx, id)
		if err != nil {
			return domain.BalanceResult{}, err
		}
		if !found {
			return domain.BalanceResult{}, fmt.Errorf("%w: account %s vanished after deposit",
				domain.ErrInvariantViolation, id)
		}
		return domain.BalanceFound(balance), nil
	default:
		return domain.BalanceResult{}, fmt.Errorf("%w: deposit affected %d rows for account %s",
			domain.ErrInvariantViolation, result.RowsAffected, id)
	}
}

// Withdraw 提款
//
// 正確性核心 (不要改寫成「先 SELECT 再 UPDATE」):
//
//	UPDATE accounts SET balance = balance - ? WHERE id = ? AND balance >= ?
//
// 餘額檢查寫在同一個 UPDATE 的 WHERE 條件裡，資料庫對單一語句的列級原子性
// 就是唯一的同步機制，不需要交易或 SELECT ... FOR UPDATE。
// 兩個同時進行的提款最終效果等同某種先後順序，不可能透支。
// 代價是 0 rows 的意義不明確 (帳戶不存在或餘額不足)，需要再讀一次來區分。
func (ledger *SQLLedger) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	if amount < 0 {
		return domain.WithdrawResult{}, domain.ErrInvalidAmount
	}

	result := ledger.db(ctx).
		Model(&sqlAccount{}).
		Where("id = ? AND balance >= ?", id.String(), amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return domain.WithdrawResult{}, fmt.Errorf("withdraw account %s: %w", id, result.Error)
	}

	switch result.RowsAffected {
	case 1:
		balance, found, err := ledger.readBalance(ctx, id)
		if err != nil {
			return domain.WithdrawResult{}, err
		}
		if !found {
			return domain.WithdrawResult{}, fmt.Errorf("%w: account %s vanished after withdraw",
				domain.ErrInvariantViolation, id)
		}
		return domain.WithdrawOK(balance), nil
	case 0:
		// 區分「帳戶不存在」與「餘額不足」
		balance, found, err := ledger.readBalance(ctx, id)
		if err != nil {
			return domain.WithdrawResult{}, err
		}
		if !found {
			return domain.WithdrawNotFound(id), nil
		}
		return domain.WithdrawInsufficient(balance), nil
	default:
		return domain.WithdrawResult{}, fmt.Errorf("%w: withdraw affected %d rows for account %s",
			domain.ErrInvariantViolation, result.RowsAffected, id)
	}
}

// readBalance 單列查詢，不存在時 found 為 false (不使用 First 以避免 ErrRecordNotFound 日誌)
func (ledger *SQLLedger) readBalance(ctx context.Context, id domain.AccountID) (balance int64, found bool, err error) {
	var rows []sqlAccount
	result := ledger.db(ctx).
		Select("balance").
		Where("id = ?", id.String()).
		Limit(1).
		Find(&rows)
	if result.Error != nil {
		return 0, false, fmt.Errorf("select balance of account %s: %w", id, result.Error)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].Balance, true, nil
}

var _ usecase.Ledger = (*SQLLedger)(nil)
