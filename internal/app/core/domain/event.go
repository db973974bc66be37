package domain

// EventType 帳務事件類型
type EventType string

const (
	EventAccountCreated EventType = "account_created"
	EventDeposited      EventType = "deposited"
	EventWithdrawn      EventType = "withdrawn"
)

// BalanceEvent 成功變動後發布的事件
type BalanceEvent struct {
	Type      EventType `json:"type"`
	AccountID AccountID `json:"account_id"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	// CreatedAt: UnixNano
	CreatedAt int64 `json:"created_at"`
}
