package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase/ledgertest"
	"github.com/JoeShih716/go-account-ledger/pkg/wal"
)

func startEngine(t *testing.T, journal *wal.WAL) *EngineLedger {
	t.Helper()
	ledger, err := NewEngineLedger(journal, 64)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	ledger.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-ledger.Done()
	})
	return ledger
}

func TestEngineLedger_Contract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) usecase.Ledger {
		return startEngine(t, nil)
	})
}

func TestEngineLedger_ContractWithJournal(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) usecase.Ledger {
		return startEngine(t, openWAL(t, filepath.Join(t.TempDir(), "engine.wal")))
	})
}

func TestEngineLedger_SharesJournalFormatWithMutexLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.wal")

	w, err := wal.NewWAL(path)
	require.NoError(t, err)
	mutex, err := NewMutexLedger(w)
	require.NoError(t, err)
	id, err := mutex.CreateAccount(ctx, "shared")
	require.NoError(t, err)
	_, err = mutex.Deposit(ctx, id, 80)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	engine := startEngine(t, openWAL(t, path))
	res, err := engine.Withdraw(ctx, id, 30)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawOK(50), res)
}

func TestEngineLedger_StoppedEngineRejectsRequests(t *testing.T) {
	ledger, err := NewEngineLedger(nil, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	ledger.Start(ctx)

	id, err := ledger.CreateAccount(context.Background(), "before stop")
	require.NoError(t, err)

	cancel()
	<-ledger.Done()

	_, err = ledger.GetBalance(context.Background(), id)
	assert.ErrorIs(t, err, ErrEngineStopped)
}

func TestEngineLedger_CanceledContextBeforeSubmit(t *testing.T) {
	// 未啟動的引擎，輸送帶容量 0，送出會阻塞直到 ctx 取消
	ledger, err := NewEngineLedger(nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ledger.CreateAccount(ctx, "never")
	assert.ErrorIs(t, err, context.Canceled)
}
