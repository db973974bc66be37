package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// maxBodySize 回應本體上限，帳本回應只有一個數字或一個 ID
const maxBodySize = 64 << 10

// Client 透過 HTTP/JSON 呼叫遠端帳本，實作 usecase.Ledger
// 不做輸入檢查也不快取，狀態碼以外的回應一律視為錯誤
type Client struct {
	baseURL string
	http    *http.Client
}

// Option 定義了 Client 的配置選項函數
type Option func(*Client)

// WithHTTPClient 替換底層的 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient 建立 Client
//
// 參數:
//
//	baseURL: 遠端帳本位址 (例如 http://ledger:8080)
//	opts: 可選設定
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type amountRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

func (c *Client) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	status, body, err := c.post(ctx, "/accounts/", map[string]string{"description": description})
	if err != nil {
		return domain.AccountID{}, err
	}
	if status != http.StatusCreated {
		return domain.AccountID{}, unexpected("create_account", status, body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AccountID{}, fmt.Errorf("http create_account: decode response: %w", err)
	}
	id, err := domain.ParseAccountID(resp.ID)
	if err != nil {
		return domain.AccountID{}, fmt.Errorf("http create_account: malformed id %q: %w", resp.ID, err)
	}
	return id, nil
}

func (c *Client) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	status, body, err := c.post(ctx, "/accounts/get_balance", id.String())
	if err != nil {
		return domain.BalanceResult{}, err
	}
	return decodeBalance("get_balance", status, body)
}

func (c *Client) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	status, body, err := c.post(ctx, "/accounts/deposit", amountRequest{AccountID: id.String(), Amount: amount})
	if err != nil {
		return domain.BalanceResult{}, err
	}
	return decodeBalance("deposit", status, body)
}

func (c *Client) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	status, body, err := c.post(ctx, "/accounts/withdraw", amountRequest{AccountID: id.String(), Amount: amount})
	if err != nil {
		return domain.WithdrawResult{}, err
	}
	switch status {
	case http.StatusOK:
		balance, err := decodeNumber("withdraw", body)
		if err != nil {
			return domain.WithdrawResult{}, err
		}
		return domain.WithdrawOK(balance), nil
	case http.StatusNotFound:
		missing, err := decodeID("withdraw", body)
		if err != nil {
			return domain.WithdrawResult{}, err
		}
		return domain.WithdrawNotFound(missing), nil
	case http.StatusUnprocessableEntity:
		current, err := decodeNumber("withdraw", body)
		if err != nil {
			return domain.WithdrawResult{}, err
		}
		return domain.WithdrawInsufficient(current), nil
	default:
		return domain.WithdrawResult{}, unexpected("withdraw", status, body)
	}
}

// post 送出 JSON 請求並回傳狀態碼與回應本體
func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("http %s: encode request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("http %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("http %s: read response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func decodeBalance(op string, status int, body []byte) (domain.BalanceResult, error) {
	switch status {
	case http.StatusOK:
		balance, err := decodeNumber(op, body)
		if err != nil {
			return domain.BalanceResult{}, err
		}
		return domain.BalanceFound(balance), nil
	case http.StatusNotFound:
		missing, err := decodeID(op, body)
		if err != nil {
			return domain.BalanceResult{}, err
		}
		return domain.BalanceNotFound(missing), nil
	default:
		return domain.BalanceResult{}, unexpected(op, status, body)
	}
}

func decodeNumber(op string, body []byte) (int64, error) {
	var n int64
	if err := json.Unmarshal(body, &n); err != nil {
		return 0, fmt.Errorf("http %s: decode balance: %w", op, err)
	}
	return n, nil
}

// decodeID 404 必須帶有合法的帳戶 ID，否則 (例如路由不存在) 視為錯誤
func decodeID(op string, body []byte) (domain.AccountID, error) {
	var raw string
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.AccountID{}, fmt.Errorf("http %s: decode not-found body: %w", op, err)
	}
	id, err := domain.ParseAccountID(raw)
	if err != nil {
		return domain.AccountID{}, fmt.Errorf("http %s: malformed not-found id %q: %w", op, raw, err)
	}
	return id, nil
}

// unexpected 將 400 還原成輸入錯誤，其他狀態碼保留狀態與本體
func unexpected(op string, status int, body []byte) error {
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &resp)
	if status == http.StatusBadRequest {
		if inputErr := domain.LookupInputError(resp.Error); inputErr != nil {
			return fmt.Errorf("http %s: %w", op, inputErr)
		}
	}
	msg := resp.Error
	if msg == "" {
		msg = string(body)
	}
	return &StatusError{Op: op, Status: status, Message: msg}
}

// StatusError 遠端回傳了非預期的狀態碼
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s: unexpected status %d: %s", e.Op, e.Status, e.Message)
}

var _ usecase.Ledger = (*Client)(nil)
