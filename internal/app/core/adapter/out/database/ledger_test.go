package database

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase/ledgertest"
	"github.com/JoeShih716/go-account-ledger/pkg/database"
)

func newSQLiteClient(t *testing.T) *database.Client {
	t.Helper()
	// SQLite 同時只允許一個寫入者
	return newSQLiteClientWithConns(t, 1)
}

// newSQLiteClientWithConns 多個連線時寫入者之間靠 busy_timeout 等待
func newSQLiteClientWithConns(t *testing.T, conns int) *database.Client {
	t.Helper()
	client, err := database.NewClient(context.Background(), database.Config{
		Driver:       database.DriverSQLite,
		DBName:       filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: conns,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newSQLLedger(t *testing.T) *SQLLedger {
	t.Helper()
	ledger, err := NewSQLLedger(context.Background(), newSQLiteClient(t))
	require.NoError(t, err)
	return ledger
}

func TestSQLLedger_Contract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) usecase.Ledger {
		return newSQLLedger(t)
	})
}

// 條件式 UPDATE 在多個連線同時提款時也不會透支
func TestSQLLedger_ConcurrentWithdrawalsAcrossConnections(t *testing.T) {
	ledger, err := NewSQLLedger(context.Background(), newSQLiteClientWithConns(t, 8))
	require.NoError(t, err)

	ledgertest.ConcurrentWithdrawals(t, ledger, 50)
}

func TestSQLLedger_DepositOverflowKeepsIntegerBalance(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLLedger(t)

	id, err := ledger.CreateAccount(ctx, "overflow")
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, id, math.MaxInt64)
	require.NoError(t, err)

	_, err = ledger.Deposit(ctx, id, 1)
	require.ErrorIs(t, err, domain.ErrBalanceOverflow)

	var typ string
	require.NoError(t, ledger.client.DB().Raw("SELECT typeof(balance) FROM accounts WHERE id = ?", id.String()).Scan(&typ).Error)
	assert.Equal(t, "integer", typ)

	res, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(math.MaxInt64), res)

	// 不存在的帳戶仍回報 NotFound，不是溢位
	missing := domain.NewAccountID()
	res, err = ledger.Deposit(ctx, missing, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceNotFound(missing), res)
}

func TestSQLLedger_SchemaInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)

	first, err := NewSQLLedger(ctx, client)
	require.NoError(t, err)
	id, err := first.CreateAccount(ctx, "kept")
	require.NoError(t, err)
	_, err = first.Deposit(ctx, id, 9)
	require.NoError(t, err)

	second, err := NewSQLLedger(ctx, client)
	require.NoError(t, err)
	res, err := second.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(9), res)
}

func TestSQLLedger_SchemaInitGivesUp(t *testing.T) {
	client := newSQLiteClient(t)
	require.NoError(t, client.Close())

	_, err := NewSQLLedger(context.Background(), client, WithSchemaRetry(3, time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestSQLLedger_StoresDescription(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLLedger(t)

	id, err := ledger.CreateAccount(ctx, "savings")
	require.NoError(t, err)

	var row sqlAccount
	require.NoError(t, ledger.client.DB().Where("id = ?", id.String()).Take(&row).Error)
	assert.Equal(t, "savings", row.Description)
	assert.Zero(t, row.Balance)
}

// 模擬 schema 漂移：觸發器在 UPDATE 後刪除資料列，重新讀取與 affected rows 矛盾
func TestSQLLedger_InvariantViolationFromTrigger(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLLedger(t)

	id, err := ledger.CreateAccount(ctx, "doomed")
	require.NoError(t, err)

	require.NoError(t, ledger.client.DB().Exec(`
CREATE TRIGGER accounts_vanish AFTER UPDATE ON accounts
BEGIN
	DELETE FROM accounts WHERE id = NEW.id;
END`).Error)

	_, err = ledger.Deposit(ctx, id, 10)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestSQLLedger_BackendFailureIsNotNotFound(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)
	ledger, err := NewSQLLedger(ctx, client)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = ledger.GetBalance(ctx, domain.NewAccountID())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = ledger.Withdraw(ctx, domain.NewAccountID(), 1)
	require.Error(t, err)
}
