// Package ledgertest 提供所有 usecase.Ledger 實作共用的行為測試
// 記憶體、SQL、HTTP Client、gRPC Client 都必須通過同一組測試
package ledgertest

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// Factory 為每個子測試建立一個全新的 Ledger
type Factory func(t *testing.T) usecase.Ledger

// Run 執行完整的 Ledger 行為測試
func Run(t *testing.T, newLedger Factory) {
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newLedger(t)) })
	t.Run("UnknownAccount", func(t *testing.T) { testUnknownAccount(t, newLedger(t)) })
	t.Run("IdempotentRead", func(t *testing.T) { testIdempotentRead(t, newLedger(t)) })
	t.Run("ZeroAmounts", func(t *testing.T) { testZeroAmounts(t, newLedger(t)) })
	t.Run("NegativeAmount", func(t *testing.T) { testNegativeAmount(t, newLedger(t)) })
	t.Run("AccountsAreIsolated", func(t *testing.T) { testIsolation(t, newLedger(t)) })
	t.Run("DepositOverflow", func(t *testing.T) { testDepositOverflow(t, newLedger(t)) })
	t.Run("ConcurrentWithdrawals", func(t *testing.T) { ConcurrentWithdrawals(t, newLedger(t), 20) })
	t.Run("ConcurrentMixedOperations", func(t *testing.T) { testConcurrentMixed(t, newLedger(t)) })
}

func testScenario(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()

	id, err := ledger.CreateAccount(ctx, "Test")
	require.NoError(t, err)
	require.NotEqual(t, domain.AccountID{}, id)

	res, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(0), res)

	res, err = ledger.Deposit(ctx, id, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(100), res)

	wres, err := ledger.Withdraw(ctx, id, 200)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawInsufficient(100), wres)

	res, err = ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(100), res)

	wres, err = ledger.Withdraw(ctx, id, 40)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawOK(60), wres)

	wres, err = ledger.Withdraw(ctx, id, 60)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawOK(0), wres)
}

func testUnknownAccount(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	missing := domain.NewAccountID()

	res, err := ledger.GetBalance(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceNotFound(missing), res)

	res, err = ledger.Deposit(ctx, missing, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceNotFound(missing), res)

	wres, err := ledger.Withdraw(ctx, missing, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawNotFound(missing), wres)

	// 對不存在的帳戶操作後也不能出現預設為 0 的帳戶
	res, err = ledger.GetBalance(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccountNotFound, res.Outcome)
}

func testIdempotentRead(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "read")
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, id, 55)
	require.NoError(t, err)

	first, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	second, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.BalanceFound(55), second)
}

func testZeroAmounts(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "zero")
	require.NoError(t, err)

	res, err := ledger.Deposit(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(0), res)

	wres, err := ledger.Withdraw(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawOK(0), wres)
}

func testNegativeAmount(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "negative")
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, id, 10)
	require.NoError(t, err)

	_, err = ledger.Deposit(ctx, id, -5)
	assert.Error(t, err)
	_, err = ledger.Withdraw(ctx, id, -5)
	assert.Error(t, err)

	res, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(10), res)
}

func testDepositOverflow(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "overflow")
	require.NoError(t, err)

	res, err := ledger.Deposit(ctx, id, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(math.MaxInt64), res)

	_, err = ledger.Deposit(ctx, id, 1)
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	// 溢位被拒絕後帳戶仍可正常使用
	res, err = ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(math.MaxInt64), res)

	wres, err := ledger.Withdraw(ctx, id, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawOK(0), wres)
}

func testIsolation(t *testing.T, ledger usecase.Ledger) {
	ctx := context.Background()
	a, err := ledger.CreateAccount(ctx, "a")
	require.NoError(t, err)
	b, err := ledger.CreateAccount(ctx, "b")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = ledger.Deposit(ctx, a, 30)
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, b, 5)
	require.NoError(t, err)

	wres, err := ledger.Withdraw(ctx, b, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawInsufficient(5), wres)

	res, err := ledger.GetBalance(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceFound(30), res)
}

// ConcurrentWithdrawals 同時發出 workers 筆提款，餘額只夠 workers-1 筆
func ConcurrentWithdrawals(t *testing.T, ledger usecase.Ledger, workers int) {
	const amount = int64(10)
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "race")
	require.NoError(t, err)
	initial := int64(workers)*amount - 1
	_, err = ledger.Deposit(ctx, id, initial)
	require.NoError(t, err)

	results := make(chan domain.WithdrawResult, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			res, err := ledger.Withdraw(ctx, id, amount)
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var successes, insufficient int64
	for res := range results {
		switch res.Outcome {
		case domain.OutcomeOK:
			successes++
			assert.GreaterOrEqual(t, res.Balance, int64(0))
		case domain.OutcomeInsufficientBalance:
			insufficient++
			assert.Less(t, res.Balance, amount)
		default:
			t.Fatalf("unexpected withdraw outcome %s", res.Outcome)
		}
	}
	assert.LessOrEqual(t, successes, int64(workers-1))
	assert.GreaterOrEqual(t, insufficient, int64(1))

	final, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, final.Outcome)
	assert.GreaterOrEqual(t, final.Balance, int64(0))
	assert.Equal(t, initial-successes*amount, final.Balance)
}

func testConcurrentMixed(t *testing.T, ledger usecase.Ledger) {
	const workers = 16
	ctx := context.Background()
	id, err := ledger.CreateAccount(ctx, "mixed")
	require.NoError(t, err)

	var (
		mu        sync.Mutex
		deposited int64
		withdrawn int64
		wg        sync.WaitGroup
	)
	errs := make(chan error, workers*2)
	wg.Add(workers * 2)
	for i := 0; i < workers; i++ {
		amount := int64(i%5 + 1)
		go func() {
			defer wg.Done()
			res, err := ledger.Deposit(ctx, id, amount)
			if err != nil {
				errs <- err
				return
			}
			if res.Outcome == domain.OutcomeOK {
				mu.Lock()
				deposited += amount
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			res, err := ledger.Withdraw(ctx, id, amount)
			if err != nil {
				errs <- err
				return
			}
			if res.Outcome == domain.OutcomeOK {
				mu.Lock()
				withdrawn += amount
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := ledger.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, final.Balance, int64(0))
	assert.Equal(t, deposited-withdrawn, final.Balance)
}
