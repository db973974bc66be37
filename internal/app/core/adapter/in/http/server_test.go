package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *HttpServer {
	t.Helper()
	mem, err := memory.NewMutexLedger(nil)
	require.NoError(t, err)
	return NewHttpServer("", usecase.NewCoreUseCase(mem, zap.NewNop()), zap.NewNop())
}

// rawBody 直接送出的本體，不經過 JSON 編碼
type rawBody string

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if raw, ok := body.(rawBody); ok {
		data = []byte(raw)
	} else {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createAccount(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := post(t, h, "/accounts/", CreateAccountRequest{Description: "Test"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CreateAccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestHttpServer_Scenario(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createAccount(t, h)

	rec := post(t, h, "/accounts/get_balance", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `0`, rec.Body.String())

	rec = post(t, h, "/accounts/deposit", AmountRequest{AccountID: id, Amount: 100})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `100`, rec.Body.String())

	rec = post(t, h, "/accounts/withdraw", AmountRequest{AccountID: id, Amount: 200})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `100`, rec.Body.String())

	rec = post(t, h, "/accounts/withdraw", AmountRequest{AccountID: id, Amount: 40})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `60`, rec.Body.String())
}

func TestHttpServer_NotFoundReturnsID(t *testing.T) {
	h := newTestServer(t).Handler()
	missing := domain.NewAccountID().String()

	for _, rec := range []*httptest.ResponseRecorder{
		post(t, h, "/accounts/get_balance", missing),
		post(t, h, "/accounts/deposit", AmountRequest{AccountID: missing, Amount: 1}),
		post(t, h, "/accounts/withdraw", AmountRequest{AccountID: missing, Amount: 1}),
	} {
		assert.Equal(t, http.StatusNotFound, rec.Code)
		var got string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, missing, got)
	}
}

func TestHttpServer_BadRequest(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createAccount(t, h)

	tests := []struct {
		name string
		path string
		body any
		want string
	}{
		{"malformed json", "/accounts/deposit", rawBody("{not json"), errMalformedBody.Error()},
		{"invalid id", "/accounts/get_balance", "not-a-uuid", domain.ErrInvalidAccountID.Error()},
		{"negative deposit", "/accounts/deposit", AmountRequest{AccountID: id, Amount: -1}, domain.ErrInvalidAmount.Error()},
		{"negative withdraw", "/accounts/withdraw", AmountRequest{AccountID: id, Amount: -1}, domain.ErrInvalidAmount.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

type failingLedger struct{ usecase.Ledger }

func (failingLedger) GetBalance(context.Context, domain.AccountID) (domain.BalanceResult, error) {
	return domain.BalanceResult{}, errors.New("db down")
}

func TestHttpServer_BackendFailureIs500(t *testing.T) {
	h := NewHttpServer("", failingLedger{}, zap.NewNop()).Handler()

	rec := post(t, h, "/accounts/get_balance", domain.NewAccountID().String())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestHttpServer_Health(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
