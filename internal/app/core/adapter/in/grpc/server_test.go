package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/ledgerrpc"
)

func newServer(t *testing.T) *GrpcServer {
	t.Helper()
	mem, err := memory.NewMutexLedger(nil)
	require.NoError(t, err)
	return NewGrpcServer(usecase.NewCoreUseCase(mem, zap.NewNop()), zap.NewNop())
}

func TestGrpcServer_DepositWithdraw(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, &ledgerrpc.CreateAccountRequest{Description: "Test"})
	require.NoError(t, err)

	resp, err := s.Deposit(ctx, &ledgerrpc.AmountRequest{AccountID: created.ID, Amount: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 100, resp.Balance)

	resp, err = s.Withdraw(ctx, &ledgerrpc.AmountRequest{AccountID: created.ID, Amount: 30})
	require.NoError(t, err)
	assert.EqualValues(t, 70, resp.Balance)

	resp, err = s.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{AccountID: created.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 70, resp.Balance)
}

func TestGrpcServer_InsufficientBalanceCarriesCurrentBalance(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, &ledgerrpc.CreateAccountRequest{})
	require.NoError(t, err)
	_, err = s.Deposit(ctx, &ledgerrpc.AmountRequest{AccountID: created.ID, Amount: 10})
	require.NoError(t, err)

	_, err = s.Withdraw(ctx, &ledgerrpc.AmountRequest{AccountID: created.ID, Amount: 11})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*wrapperspb.Int64Value)
	require.True(t, ok)
	assert.EqualValues(t, 10, detail.GetValue())
}

func TestGrpcServer_NotFoundCarriesAccountID(t *testing.T) {
	s := newServer(t)
	missing := domain.NewAccountID()

	_, err := s.GetBalance(context.Background(), &ledgerrpc.GetBalanceRequest{AccountID: missing.String()})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*wrapperspb.StringValue)
	require.True(t, ok)
	assert.Equal(t, missing.String(), detail.GetValue())
}

func TestGrpcServer_InvalidArgument(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, err := s.GetBalance(ctx, &ledgerrpc.GetBalanceRequest{AccountID: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	created, err := s.CreateAccount(ctx, &ledgerrpc.CreateAccountRequest{})
	require.NoError(t, err)
	_, err = s.Deposit(ctx, &ledgerrpc.AmountRequest{AccountID: created.ID, Amount: -5})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, domain.ErrInvalidAmount.Error(), status.Convert(err).Message())
}
