package grpcclient

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpc_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase/ledgertest"
	grpcpool "github.com/JoeShih716/go-account-ledger/pkg/grpc"
	"github.com/JoeShih716/go-account-ledger/pkg/ledgerrpc"
)

// startServer 以 bufconn 啟動一個 in-process 的 gRPC 帳本服務並回傳連線到它的 Client
func startServer(t *testing.T, backend usecase.Ledger) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	ledgerrpc.RegisterLedgerServer(s, grpc_adapter.NewGrpcServer(backend, zap.NewNop()))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	pool := grpcpool.NewPool()
	t.Cleanup(func() { _ = pool.Close() })

	client, err := NewClientFromPool(pool, "passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	return client
}

func TestClient_Contract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) usecase.Ledger {
		mem, err := memory.NewMutexLedger(nil)
		require.NoError(t, err)
		return startServer(t, usecase.NewCoreUseCase(mem, zap.NewNop()))
	})
}

func TestClient_NegativeAmountIsInputError(t *testing.T) {
	mem, err := memory.NewMutexLedger(nil)
	require.NoError(t, err)
	client := startServer(t, usecase.NewCoreUseCase(mem, zap.NewNop()))
	ctx := context.Background()

	id, err := client.CreateAccount(ctx, "neg")
	require.NoError(t, err)

	_, err = client.Deposit(ctx, id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = client.Withdraw(ctx, id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

// brokenLedger 模擬後端故障
type brokenLedger struct{ err error }

func (b brokenLedger) CreateAccount(context.Context, string) (domain.AccountID, error) {
	return domain.AccountID{}, b.err
}

func (b brokenLedger) GetBalance(context.Context, domain.AccountID) (domain.BalanceResult, error) {
	return domain.BalanceResult{}, b.err
}

func (b brokenLedger) Deposit(context.Context, domain.AccountID, int64) (domain.BalanceResult, error) {
	return domain.BalanceResult{}, b.err
}

func (b brokenLedger) Withdraw(context.Context, domain.AccountID, int64) (domain.WithdrawResult, error) {
	return domain.WithdrawResult{}, b.err
}

func TestClient_BackendFailureIsNotNotFound(t *testing.T) {
	client := startServer(t, brokenLedger{err: errors.New("connection refused")})
	ctx := context.Background()
	id := domain.NewAccountID()

	_, err := client.CreateAccount(ctx, "x")
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))

	res, err := client.GetBalance(ctx, id)
	require.Error(t, err)
	assert.Zero(t, res.Outcome)

	_, err = client.Deposit(ctx, id, 1)
	require.Error(t, err)

	wres, err := client.Withdraw(ctx, id, 1)
	require.Error(t, err)
	assert.Zero(t, wres.Outcome)
}

func TestClient_InvariantViolationSurfacesAsInternal(t *testing.T) {
	backend := brokenLedger{err: domain.ErrInvariantViolation}
	client := startServer(t, backend)

	_, err := client.Withdraw(context.Background(), domain.NewAccountID(), 5)
	require.Error(t, err)
	st, ok := status.FromError(errors.Unwrap(err))
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal server error", st.Message())
}
