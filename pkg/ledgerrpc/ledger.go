// Package ledgerrpc 定義 ledger.v1.Ledger gRPC 服務的訊息、伺服器介面與客戶端。
//
// 訊息以 JSON codec 編碼 (pkg/grpc.JSONCodecName)，因此不需要 protoc 產生的程式碼。
package ledgerrpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "ledger.v1.Ledger"

	Ledger_CreateAccount_FullMethodName = "/ledger.v1.Ledger/CreateAccount"
	Ledger_GetBalance_FullMethodName    = "/ledger.v1.Ledger/GetBalance"
	Ledger_Deposit_FullMethodName       = "/ledger.v1.Ledger/Deposit"
	Ledger_Withdraw_FullMethodName      = "/ledger.v1.Ledger/Withdraw"
)

type CreateAccountRequest struct {
	Description string `json:"description"`
}

type CreateAccountResponse struct {
	ID string `json:"id"`
}

type GetBalanceRequest struct {
	AccountID string `json:"account_id"`
}

// AmountRequest 存款與提款共用的請求
type AmountRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// LedgerServer 伺服器端需實作的介面
type LedgerServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*BalanceResponse, error)
	Deposit(context.Context, *AmountRequest) (*BalanceResponse, error)
	Withdraw(context.Context, *AmountRequest) (*BalanceResponse, error)
}

// RegisterLedgerServer 將實作註冊到 gRPC Server
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

func _Ledger_CreateAccount_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateAccountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).CreateAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_CreateAccount_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).CreateAccount(ctx, req.(*CreateAccountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_GetBalance_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_GetBalance_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).GetBalance(ctx, req.(*GetBalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Deposit_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AmountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Deposit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_Deposit_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Deposit(ctx, req.(*AmountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Withdraw_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AmountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Withdraw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Ledger_Withdraw_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Withdraw(ctx, req.(*AmountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Ledger_ServiceDesc ledger.v1.Ledger 的服務描述
var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: _Ledger_CreateAccount_Handler},
		{MethodName: "GetBalance", Handler: _Ledger_GetBalance_Handler},
		{MethodName: "Deposit", Handler: _Ledger_Deposit_Handler},
		{MethodName: "Withdraw", Handler: _Ledger_Withdraw_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.json",
}

// LedgerClient ledger.v1.Ledger 的客戶端
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountResponse, error) {
	out := new(CreateAccountResponse)
	if err := c.cc.Invoke(ctx, Ledger_CreateAccount_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.cc.Invoke(ctx, Ledger_GetBalance_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) Deposit(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.cc.Invoke(ctx, Ledger_Deposit_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) Withdraw(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.cc.Invoke(ctx, Ledger_Withdraw_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
