package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/ledgerrpc"
)

// GrpcServer 將 ledger.v1.Ledger 的請求轉成 Ledger 呼叫
//
// 業務結果對應:
//
//	AccountNotFound     -> codes.NotFound + StringValue(帳戶 ID)
//	InsufficientBalance -> codes.FailedPrecondition + Int64Value(當下餘額)
//	輸入錯誤            -> codes.InvalidArgument
//	其他錯誤            -> codes.Internal
type GrpcServer struct {
	ledger usecase.Ledger
	logger *zap.Logger
}

func NewGrpcServer(ledger usecase.Ledger, logger *zap.Logger) *GrpcServer {
	return &GrpcServer{
		ledger: ledger,
		logger: logger,
	}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *ledgerrpc.CreateAccountRequest) (*ledgerrpc.CreateAccountResponse, error) {
	id, err := s.ledger.CreateAccount(ctx, req.Description)
	if err != nil {
		return nil, s.toStatus("CreateAccount", err)
	}
	return &ledgerrpc.CreateAccountResponse{ID: id.String()}, nil
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *ledgerrpc.GetBalanceRequest) (*ledgerrpc.BalanceResponse, error) {
	id, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.ledger.GetBalance(ctx, id)
	if err != nil {
		return nil, s.toStatus("GetBalance", err)
	}
	if res.Outcome == domain.OutcomeAccountNotFound {
		return nil, notFound(res.AccountID)
	}
	return &ledgerrpc.BalanceResponse{Balance: res.Balance}, nil
}

func (s *GrpcServer) Deposit(ctx context.Context, req *ledgerrpc.AmountRequest) (*ledgerrpc.BalanceResponse, error) {
	id, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.ledger.Deposit(ctx, id, req.Amount)
	if err != nil {
		return nil, s.toStatus("Deposit", err)
	}
	if res.Outcome == domain.OutcomeAccountNotFound {
		return nil, notFound(res.AccountID)
	}
	return &ledgerrpc.BalanceResponse{Balance: res.Balance}, nil
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *ledgerrpc.AmountRequest) (*ledgerrpc.BalanceResponse, error) {
	id, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.ledger.Withdraw(ctx, id, req.Amount)
	if err != nil {
		return nil, s.toStatus("Withdraw", err)
	}
	switch res.Outcome {
	case domain.OutcomeAccountNotFound:
		return nil, notFound(res.AccountID)
	case domain.OutcomeInsufficientBalance:
		return nil, insufficientBalance(res.Balance)
	}
	return &ledgerrpc.BalanceResponse{Balance: res.Balance}, nil
}

// toStatus 將錯誤轉為 gRPC status，內部錯誤不外洩細節
func (s *GrpcServer) toStatus(method string, err error) error {
	if inputErr := domain.AsInputError(err); inputErr != nil {
		return status.Error(codes.InvalidArgument, inputErr.Error())
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Warn("gRPC request failed", zap.String("method", method), zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}

func notFound(id domain.AccountID) error {
	st, err := status.New(codes.NotFound, "account not found").WithDetails(wrapperspb.String(id.String()))
	if err != nil {
		return status.Error(codes.Internal, "internal server error")
	}
	return st.Err()
}

func insufficientBalance(current int64) error {
	st, err := status.New(codes.FailedPrecondition, "insufficient balance").WithDetails(wrapperspb.Int64(current))
	if err != nil {
		return status.Error(codes.Internal, "internal server error")
	}
	return st.Err()
}

var _ ledgerrpc.LedgerServer = (*GrpcServer)(nil)
