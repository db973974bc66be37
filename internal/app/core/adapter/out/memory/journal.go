package memory

import (
	"encoding/json"
	"fmt"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/pkg/wal"
)

type journalOp string

const (
	journalCreate   journalOp = "create"
	journalDeposit  journalOp = "deposit"
	journalWithdraw journalOp = "withdraw"
)

// journalEntry WAL 中的一筆紀錄，只記錄成功的變動
type journalEntry struct {
	Op          journalOp        `json:"op"`
	AccountID   domain.AccountID `json:"account_id"`
	Description string           `json:"description,omitempty"`
	Amount      int64            `json:"amount,omitempty"`
}

// replayJournal 依序重放 WAL 中的變動到 accounts (不寫入 WAL)
func replayJournal(journal *wal.WAL, accounts map[domain.AccountID]*domain.Account) error {
	return journal.ReadAll(func(raw json.RawMessage) error {
		var entry journalEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode journal entry: %w", err)
		}
		return applyJournalEntry(accounts, &entry)
	})
}

// applyJournalEntry 恢復單筆變動至記憶體
func applyJournalEntry(accounts map[domain.AccountID]*domain.Account, entry *journalEntry) error {
	if entry.Op == journalCreate {
		if _, exists := accounts[entry.AccountID]; exists {
			return fmt.Errorf("%w: journal creates account %s twice", domain.ErrInvariantViolation, entry.AccountID)
		}
		accounts[entry.AccountID] = domain.NewAccount(entry.AccountID, entry.Description)
		return nil
	}

	account, ok := accounts[entry.AccountID]
	if !ok {
		return fmt.Errorf("%w: journal %s on unknown account %s", domain.ErrInvariantViolation, entry.Op, entry.AccountID)
	}
	switch entry.Op {
	case journalDeposit:
		return account.Deposit(entry.Amount)
	case journalWithdraw:
		ok, err := account.Withdraw(entry.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: journal withdraw overdraws account %s", domain.ErrInvariantViolation, entry.AccountID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown journal op %q", domain.ErrInvariantViolation, entry.Op)
	}
}

// appendJournal 寫入一筆變動，journal 為 nil 時不做事
func appendJournal(journal *wal.WAL, entry journalEntry) error {
	if journal == nil {
		return nil
	}
	if err := journal.Append(entry); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrJournalWriteFailed, err)
	}
	return nil
}
