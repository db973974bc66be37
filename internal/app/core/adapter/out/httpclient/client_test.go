package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	http_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/in/http"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase/ledgertest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func startServer(t *testing.T, backend usecase.Ledger) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http_adapter.NewHttpServer("", backend, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newMemoryBackend(t *testing.T) usecase.Ledger {
	t.Helper()
	mem, err := memory.NewMutexLedger(nil)
	require.NoError(t, err)
	return usecase.NewCoreUseCase(mem, zap.NewNop())
}

func TestClient_Contract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) usecase.Ledger {
		srv := startServer(t, newMemoryBackend(t))
		return NewClient(srv.URL, WithHTTPClient(srv.Client()))
	})
}

func TestClient_NegativeAmountIsInputError(t *testing.T) {
	srv := startServer(t, newMemoryBackend(t))
	client := NewClient(srv.URL + "/")
	ctx := context.Background()

	id, err := client.CreateAccount(ctx, "neg")
	require.NoError(t, err)

	_, err = client.Deposit(ctx, id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = client.Withdraw(ctx, id, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

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

func TestClient_ServerErrorIsNotNotFound(t *testing.T) {
	srv := startServer(t, brokenLedger{err: errors.New("db down")})
	client := NewClient(srv.URL)
	ctx := context.Background()
	id := domain.NewAccountID()

	res, err := client.GetBalance(ctx, id)
	require.Error(t, err)
	assert.Zero(t, res.Outcome)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "internal server error", statusErr.Message)

	wres, err := client.Withdraw(ctx, id, 1)
	require.Error(t, err)
	assert.Zero(t, wres.Outcome)

	_, err = client.CreateAccount(ctx, "x")
	require.ErrorAs(t, err, &statusErr)
}

func TestClient_UnknownRouteIsNotNotFound(t *testing.T) {
	srv := startServer(t, newMemoryBackend(t))
	client := NewClient(srv.URL + "/missing")

	res, err := client.GetBalance(context.Background(), domain.NewAccountID())
	require.Error(t, err)
	assert.Zero(t, res.Outcome)
}

func TestClient_TransportError(t *testing.T) {
	srv := startServer(t, newMemoryBackend(t))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).CreateAccount(context.Background(), "x")
	assert.Error(t, err)
}
