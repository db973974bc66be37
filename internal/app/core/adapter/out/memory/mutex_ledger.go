package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/wal"
)

// MutexLedger 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	mu: 整個 Map 共用一把互斥鎖，所有操作全程持有
//	wal: Write-Ahead Log 實例 (可為 nil，代表純記憶體)
type MutexLedger struct {
	accounts map[domain.AccountID]*domain.Account
	mu       sync.Mutex
	wal      *wal.WAL
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	journal: Write-Ahead Log 實例，nil 代表不持久化
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexLedger(journal *wal.WAL) (*MutexLedger, error) {
	ledger := &MutexLedger{
		accounts: make(map[domain.AccountID]*domain.Account),
		wal:      journal,
	}
	if journal == nil {
		return ledger, nil
	}
	if err := ledger.recoverFromWAL(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態
// 只有 NewMutexLedger 呼叫，無需 Lock (單執行緒)
func (m *MutexLedger) recoverFromWAL() error {
	return replayJournal(m.wal, m.accounts)
}

// journal 在套用變動前寫入 WAL，呼叫端必須持有 m.mu
func (m *MutexLedger) journal(entry journalEntry) error {
	return appendJournal(m.wal, entry)
}

// CreateAccount 建立帳戶
func (m *MutexLedger) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := domain.NewAccountID()
	for m.accounts[id] != nil {
		id = domain.NewAccountID()
	}

	if err := m.journal(journalEntry{Op: journalCreate, AccountID: id, Description: description}); err != nil {
		return domain.AccountID{}, err
	}
	m.accounts[id] = domain.NewAccount(id, description)
	return id, nil
}

// GetBalance 取得指定帳戶的當前餘額
//
// 參數:
//
//	ctx: 上下文
//	id: 帳戶 ID
//
// 回傳:
//
//	domain.BalanceResult: 餘額或帳戶不存在
//	error: 永遠為 nil
func (m *MutexLedger) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return domain.BalanceNotFound(id), nil
	}
	return domain.BalanceFound(account.Balance), nil
}

// Deposit 處理存款邏輯
func (m *MutexLedger) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	if amount < 0 {
		return domain.BalanceResult{}, domain.ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return domain.BalanceNotFound(id), nil
	}
	// 先在副本上驗證 (溢位)，確認可以成功才寫 WAL
	next := *account
	if err := next.Deposit(amount); err != nil {
		return domain.BalanceResult{}, err
	}
	if err := m.journal(journalEntry{Op: journalDeposit, AccountID: id, Amount: amount}); err != nil {
		return domain.BalanceResult{}, err
	}
	account.Balance = next.Balance
	return domain.BalanceFound(account.Balance), nil
}

// Withdraw 處理提款邏輯
// 讀取、比較、扣款在同一個臨界區內完成，沒有 check-then-act 競爭
func (m *MutexLedger) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	if amount < 0 {
		return domain.WithdrawResult{}, domain.ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return domain.WithdrawNotFound(id), nil
	}
	if account.Balance < amount {
		return domain.WithdrawInsufficient(account.Balance), nil
	}
	if err := m.journal(journalEntry{Op: journalWithdraw, AccountID: id, Amount: amount}); err != nil {
		return domain.WithdrawResult{}, err
	}
	if _, err := account.Withdraw(amount); err != nil {
		return domain.WithdrawResult{}, err
	}
	return domain.WithdrawOK(account.Balance), nil
}

var _ usecase.Ledger = (*MutexLedger)(nil)
