package domain

import "errors"

// 注意: 帳戶不存在、餘額不足屬於業務結果 (見 Outcome)，不是錯誤
var (
	// ErrInvalidAmount 金額必須 >= 0
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInvalidAccountID 帳戶 ID 格式錯誤
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrBalanceOverflow 存款後餘額溢位
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrInvariantViolation 原子性假設被破壞 (例如 affected rows 與預期不符)
	// 代表 schema 漂移或程式錯誤，必須大聲記錄
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrJournalWriteFailed 寫入 WAL 失敗
	ErrJournalWriteFailed = errors.New("journal write failed")
)

// inputErrors 可以跨程序傳遞的輸入錯誤，遠端以錯誤訊息還原
var inputErrors = []error{ErrInvalidAmount, ErrInvalidAccountID, ErrBalanceOverflow}

// AsInputError 若 err 是呼叫端輸入造成的錯誤，回傳對應的 sentinel，否則回傳 nil
func AsInputError(err error) error {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// LookupInputError 以錯誤訊息找回對應的輸入錯誤，找不到回傳 nil
func LookupInputError(msg string) error {
	for _, target := range inputErrors {
		if target.Error() == msg {
			return target
		}
	}
	return nil
}
