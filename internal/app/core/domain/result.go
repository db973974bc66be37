package domain

import "fmt"

// Outcome 帳務操作的業務結果
type Outcome uint8

const (
	// OutcomeOK 成功，Balance 為最新餘額
	OutcomeOK Outcome = iota + 1
	// OutcomeAccountNotFound 帳戶不存在，AccountID 為查詢的帳戶
	OutcomeAccountNotFound
	// OutcomeInsufficientBalance 餘額不足 (只有提款會出現)，Balance 為判斷當下的餘額
	OutcomeInsufficientBalance
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAccountNotFound:
		return "account_not_found"
	case OutcomeInsufficientBalance:
		return "insufficient_balance"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// BalanceResult 查詢餘額 / 存款的結果: OK(balance) | AccountNotFound(id)
type BalanceResult struct {
	Outcome   Outcome
	AccountID AccountID
	Balance   int64
}

// BalanceFound 建立 OK 結果
func BalanceFound(balance int64) BalanceResult {
	return BalanceResult{Outcome: OutcomeOK, Balance: balance}
}

// BalanceNotFound 建立帳戶不存在結果
func BalanceNotFound(id AccountID) BalanceResult {
	return BalanceResult{Outcome: OutcomeAccountNotFound, AccountID: id}
}

func (r BalanceResult) Found() bool {
	return r.Outcome == OutcomeOK
}

func (r BalanceResult) String() string {
	if r.Outcome == OutcomeAccountNotFound {
		return fmt.Sprintf("AccountNotFound(%s)", r.AccountID)
	}
	return fmt.Sprintf("Ok(%d)", r.Balance)
}

// WithdrawResult 提款結果: OK(balance) | AccountNotFound(id) | InsufficientBalance(balance)
type WithdrawResult struct {
	Outcome   Outcome
	AccountID AccountID
	Balance   int64
}

func WithdrawOK(balance int64) WithdrawResult {
	return WithdrawResult{Outcome: OutcomeOK, Balance: balance}
}

func WithdrawNotFound(id AccountID) WithdrawResult {
	return WithdrawResult{Outcome: OutcomeAccountNotFound, AccountID: id}
}

func WithdrawInsufficient(current int64) WithdrawResult {
	return WithdrawResult{Outcome: OutcomeInsufficientBalance, Balance: current}
}

func (r WithdrawResult) String() string {
	switch r.Outcome {
	case OutcomeAccountNotFound:
		return fmt.Sprintf("AccountNotFound(%s)", r.AccountID)
	case OutcomeInsufficientBalance:
		return fmt.Sprintf("InsufficientBalance(%d)", r.Balance)
	default:
		return fmt.Sprintf("Ok(%d)", r.Balance)
	}
}
