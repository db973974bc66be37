package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/wal"
)

// ErrEngineStopped 引擎已停止，請求沒有被處理
var ErrEngineStopped = errors.New("ledger engine stopped")

type commandOp uint8

const (
	cmdCreate commandOp = iota + 1
	cmdGetBalance
	cmdDeposit
	cmdWithdraw
)

// command 請求包裝 channel，讓呼叫端可以等待結果
type command struct {
	op          commandOp
	id          domain.AccountID
	description string
	amount      int64
	result      chan commandResult
}

type commandResult struct {
	id      domain.AccountID
	outcome domain.Outcome
	balance int64
	err     error
}

// EngineLedger 單一 goroutine 持有所有帳戶的帳本 (LMAX 風格)
//
// 呼叫端 -> Channel -> run loop (唯一寫入者) -> WAL -> Map Update -> result channel -> 呼叫端
//
// accounts 只在 run loop 中存取，不需要鎖
type EngineLedger struct {
	accounts map[domain.AccountID]*domain.Account
	// Write-Ahead Logging (可為 nil)
	wal *wal.WAL
	// 輸送帶 負責接收請求
	commands chan *command
	// 引擎結束後關閉
	done      chan struct{}
	startOnce sync.Once
}

// NewEngineLedger 建立一個新的 EngineLedger 實例，需呼叫 Start 之後才會處理請求
//
// 參數:
//
//	journal: Write-Ahead Log 實例，nil 代表不持久化
//	bufferSize: 輸送帶容量
//
// 回傳:
//
//	*EngineLedger: EngineLedger 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewEngineLedger(journal *wal.WAL, bufferSize int) (*EngineLedger, error) {
	ledger := &EngineLedger{
		accounts: make(map[domain.AccountID]*domain.Account),
		wal:      journal,
		commands: make(chan *command, bufferSize),
		done:     make(chan struct{}),
	}

	// 在啟動前先恢復資料
	if journal != nil {
		if err := replayJournal(journal, ledger.accounts); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// Start 啟動核心引擎 (非同步)，ctx 結束時處理完輸送帶上剩下的請求後停止
func (l *EngineLedger) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

// Done 引擎停止後關閉
func (l *EngineLedger) Done() <-chan struct{} {
	return l.done
}

func (l *EngineLedger) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case cmd := <-l.commands:
			cmd.result <- l.process(cmd)
		}
	}
}

func (l *EngineLedger) drain() {
	for {
		select {
		case cmd := <-l.commands:
			cmd.result <- l.process(cmd)
		default:
			return
		}
	}
}

// submit 送出請求並等待結果
// 請求一旦進入輸送帶就一定會被處理，因此不再因 ctx 取消而提早返回
func (l *EngineLedger) submit(ctx context.Context, cmd *command) commandResult {
	cmd.result = make(chan commandResult, 1)
	select {
	case l.commands <- cmd:
	case <-ctx.Done():
		return commandResult{err: ctx.Err()}
	case <-l.done:
		return commandResult{err: ErrEngineStopped}
	}

	select {
	case res := <-cmd.result:
		return res
	case <-l.done:
		// drain 與送出同時發生時，請求可能留在輸送帶上未被處理
		select {
		case res := <-cmd.result:
			return res
		default:
			return commandResult{err: ErrEngineStopped}
		}
	}
}

// process 在 run loop 中執行單筆請求
func (l *EngineLedger) process(cmd *command) commandResult {
	if cmd.op == cmdCreate {
		id := domain.NewAccountID()
		for l.accounts[id] != nil {
			id = domain.NewAccountID()
		}
		if err := appendJournal(l.wal, journalEntry{Op: journalCreate, AccountID: id, Description: cmd.description}); err != nil {
			return commandResult{err: err}
		}
		l.accounts[id] = domain.NewAccount(id, cmd.description)
		return commandResult{id: id, outcome: domain.OutcomeOK}
	}

	account, ok := l.accounts[cmd.id]
	if !ok {
		return commandResult{outcome: domain.OutcomeAccountNotFound}
	}

	switch cmd.op {
	case cmdGetBalance:
		return commandResult{outcome: domain.OutcomeOK, balance: account.Balance}
	case cmdDeposit:
		next := *account
		if err := next.Deposit(cmd.amount); err != nil {
			return commandResult{err: err}
		}
		if err := appendJournal(l.wal, journalEntry{Op: journalDeposit, AccountID: cmd.id, Amount: cmd.amount}); err != nil {
			return commandResult{err: err}
		}
		account.Balance = next.Balance
		return commandResult{outcome: domain.OutcomeOK, balance: account.Balance}
	case cmdWithdraw:
		if account.Balance < cmd.amount {
			return commandResult{outcome: domain.OutcomeInsufficientBalance, balance: account.Balance}
		}
		if err := appendJournal(l.wal, journalEntry{Op: journalWithdraw, AccountID: cmd.id, Amount: cmd.amount}); err != nil {
			return commandResult{err: err}
		}
		if _, err := account.Withdraw(cmd.amount); err != nil {
			return commandResult{err: err}
		}
		return commandResult{outcome: domain.OutcomeOK, balance: account.Balance}
	default:
		return commandResult{err: errors.New("unknown ledger command")}
	}
}

func (l *EngineLedger) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	res := l.submit(ctx, &command{op: cmdCreate, description: description})
	return res.id, res.err
}

func (l *EngineLedger) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	res := l.submit(ctx, &command{op: cmdGetBalance, id: id})
	return toBalanceResult(id, res)
}

func (l *EngineLedger) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	if amount < 0 {
		return domain.BalanceResult{}, domain.ErrInvalidAmount
	}
	res := l.submit(ctx, &command{op: cmdDeposit, id: id, amount: amount})
	return toBalanceResult(id, res)
}

func (l *EngineLedger) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	if amount < 0 {
		return domain.WithdrawResult{}, domain.ErrInvalidAmount
	}
	res := l.submit(ctx, &command{op: cmdWithdraw, id: id, amount: amount})
	if res.err != nil {
		return domain.WithdrawResult{}, res.err
	}
	switch res.outcome {
	case domain.OutcomeAccountNotFound:
		return domain.WithdrawNotFound(id), nil
	case domain.OutcomeInsufficientBalance:
		return domain.WithdrawInsufficient(res.balance), nil
	default:
		return domain.WithdrawOK(res.balance), nil
	}
}

func toBalanceResult(id domain.AccountID, res commandResult) (domain.BalanceResult, error) {
	if res.err != nil {
		return domain.BalanceResult{}, res.err
	}
	if res.outcome == domain.OutcomeAccountNotFound {
		return domain.BalanceNotFound(id), nil
	}
	return domain.BalanceFound(res.balance), nil
}

var _ usecase.Ledger = (*EngineLedger)(nil)
