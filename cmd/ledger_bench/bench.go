package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// Report 一次壓測的結果
type Report struct {
	AccountID    domain.AccountID
	Amount       int64
	Initial      int64
	Successes    int
	Insufficient int
	Errors       int
	Final        int64
	Elapsed      time.Duration
}

// Consistent 最終餘額必須等於初始餘額扣掉成功的提款，且不為負
func (r Report) Consistent() bool {
	return r.Final >= 0 && r.Final == r.Initial-int64(r.Successes)*r.Amount
}

// Run 建立帳戶並存入 workers*amount-1，再同時發出 workers 筆提款
// 最多只有 workers-1 筆可以成功
func Run(ctx context.Context, ledger usecase.Ledger, workers int, amount int64) (Report, error) {
	if workers < 1 || amount < 1 {
		return Report{}, fmt.Errorf("workers and amount must be positive")
	}

	id, err := ledger.CreateAccount(ctx, "ledger_bench")
	if err != nil {
		return Report{}, fmt.Errorf("create account: %w", err)
	}
	initial := int64(workers)*amount - 1
	if _, err := ledger.Deposit(ctx, id, initial); err != nil {
		return Report{}, fmt.Errorf("fund account: %w", err)
	}

	var successes, insufficient, failures atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	start := time.Now()
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			res, err := ledger.Withdraw(ctx, id, amount)
			switch {
			case err != nil:
				failures.Add(1)
			case res.Outcome == domain.OutcomeOK:
				successes.Add(1)
			case res.Outcome == domain.OutcomeInsufficientBalance:
				insufficient.Add(1)
			default:
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	final, err := ledger.GetBalance(ctx, id)
	if err != nil {
		return Report{}, fmt.Errorf("read final balance: %w", err)
	}
	if !final.Found() {
		return Report{}, fmt.Errorf("account %s disappeared", id)
	}

	return Report{
		AccountID:    id,
		Amount:       amount,
		Initial:      initial,
		Successes:    int(successes.Load()),
		Insufficient: int(insufficient.Load()),
		Errors:       int(failures.Load()),
		Final:        final.Balance,
		Elapsed:      elapsed,
	}, nil
}
