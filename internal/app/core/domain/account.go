package domain

import (
	"math"

	"github.com/google/uuid"
)

// AccountID 帳戶識別碼 (128-bit 隨機 UUID)
// 對外一律以標準字串格式呈現，不使用流水號，避免洩漏建立順序
type AccountID = uuid.UUID

// NewAccountID 產生新的隨機帳戶 ID (UUIDv4)
func NewAccountID() AccountID {
	return uuid.New()
}

// ParseAccountID 解析字串格式的帳戶 ID
func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidAccountID
	}
	return id, nil
}

// Account 帳戶
// Balance 永遠 >= 0，只能透過 Deposit / Withdraw 修改
type Account struct {
	ID          AccountID
	Description string
	Balance     int64
}

func NewAccount(id AccountID, description string) *Account {
	return &Account{
		ID:          id,
		Description: description,
	}
}

// Deposit 存款
//
// 參數:
//
//	amount: 存款金額 (>= 0)
//
// 回傳:
//
//	error: ErrInvalidAmount 或 ErrBalanceOverflow
func (a *Account) Deposit(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if a.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}

	a.Balance = a.Balance + amount
	return nil
}

// Withdraw 提款
// 餘額不足時不修改餘額並回傳 false
func (a *Account) Withdraw(amount int64) (bool, error) {
	if amount < 0 {
		return false, ErrInvalidAmount
	}

	if a.Balance < amount {
		return false, nil
	}

	a.Balance = a.Balance - amount
	return true, nil
}
