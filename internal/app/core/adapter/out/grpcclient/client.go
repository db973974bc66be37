package grpcclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	grpcpool "github.com/JoeShih716/go-account-ledger/pkg/grpc"
	"github.com/JoeShih716/go-account-ledger/pkg/ledgerrpc"
)

// Client 透過 gRPC 呼叫遠端的 ledger.v1.Ledger，實作 usecase.Ledger
// 不做輸入檢查也不快取，所有判斷都交給遠端
type Client struct {
	rpc      *ledgerrpc.LedgerClient
	callOpts []grpc.CallOption
}

// NewClient 以既有連線建立 Client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{
		rpc:      ledgerrpc.NewLedgerClient(cc),
		callOpts: []grpc.CallOption{grpc.CallContentSubtype(grpcpool.JSONCodecName)},
	}
}

// NewClientFromPool 從連線池取得 target 的連線並建立 Client
//
// 參數:
//
//	pool: gRPC 連線池
//	target: 遠端帳本地址
//	opts: 額外的連線選項 (例如測試用的 ContextDialer)
//
// 回傳:
//
//	*Client: Client 實例
//	error: 建立連線失敗
func NewClientFromPool(pool *grpcpool.Pool, target string, opts ...grpc.DialOption) (*Client, error) {
	conn, err := pool.GetConnection(target, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func (c *Client) CreateAccount(ctx context.Context, description string) (domain.AccountID, error) {
	resp, err := c.rpc.CreateAccount(ctx, &ledgerrpc.CreateAccountRequest{Description: description}, c.callOpts...)
	if err != nil {
		return domain.AccountID{}, remoteError("create_account", err)
	}
	id, err := domain.ParseAccountID(resp.ID)
	if err != nil {
		return domain.AccountID{}, fmt.Errorf("grpc create_account: malformed id %q: %w", resp.ID, err)
	}
	return id, nil
}

func (c *Client) GetBalance(ctx context.Context, id domain.AccountID) (domain.BalanceResult, error) {
	resp, err := c.rpc.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{AccountID: id.String()}, c.callOpts...)
	if err != nil {
		if missing, ok := notFoundDetail(err); ok {
			return domain.BalanceNotFound(missing), nil
		}
		return domain.BalanceResult{}, remoteError("get_balance", err)
	}
	return domain.BalanceFound(resp.Balance), nil
}

func (c *Client) Deposit(ctx context.Context, id domain.AccountID, amount int64) (domain.BalanceResult, error) {
	resp, err := c.rpc.Deposit(ctx, &ledgerrpc.AmountRequest{AccountID: id.String(), Amount: amount}, c.callOpts...)
	if err != nil {
		if missing, ok := notFoundDetail(err); ok {
			return domain.BalanceNotFound(missing), nil
		}
		return domain.BalanceResult{}, remoteError("deposit", err)
	}
	return domain.BalanceFound(resp.Balance), nil
}

func (c *Client) Withdraw(ctx context.Context, id domain.AccountID, amount int64) (domain.WithdrawResult, error) {
	resp, err := c.rpc.Withdraw(ctx, &ledgerrpc.AmountRequest{AccountID: id.String(), Amount: amount}, c.callOpts...)
	if err != nil {
		if missing, ok := notFoundDetail(err); ok {
			return domain.WithdrawNotFound(missing), nil
		}
		if current, ok := insufficientDetail(err); ok {
			return domain.WithdrawInsufficient(current), nil
		}
		return domain.WithdrawResult{}, remoteError("withdraw", err)
	}
	return domain.WithdrawOK(resp.Balance), nil
}

// notFoundDetail 只有 NotFound 且帶有合法帳戶 ID 時才視為業務結果
func notFoundDetail(err error) (domain.AccountID, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return domain.AccountID{}, false
	}
	for _, detail := range st.Details() {
		if v, ok := detail.(*wrapperspb.StringValue); ok {
			id, err := domain.ParseAccountID(v.GetValue())
			if err != nil {
				return domain.AccountID{}, false
			}
			return id, true
		}
	}
	return domain.AccountID{}, false
}

func insufficientDetail(err error) (int64, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		return 0, false
	}
	for _, detail := range st.Details() {
		if v, ok := detail.(*wrapperspb.Int64Value); ok {
			return v.GetValue(), true
		}
	}
	return 0, false
}

// remoteError 還原遠端回報的輸入錯誤，其他錯誤保留原始 status
func remoteError(op string, err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		if inputErr := domain.LookupInputError(st.Message()); inputErr != nil {
			return fmt.Errorf("grpc %s: %w", op, inputErr)
		}
	}
	return fmt.Errorf("grpc %s: %w", op, err)
}

var _ usecase.Ledger = (*Client)(nil)
