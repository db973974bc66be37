package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestPool_ReusesConnectionPerTarget(t *testing.T) {
	pool := NewPool(WithInterceptor(LoggingInterceptor(zap.NewNop())))
	defer pool.Close()

	a, err := pool.GetConnection("passthrough:///ledger-a:50051")
	require.NoError(t, err)
	again, err := pool.GetConnection("passthrough:///ledger-a:50051")
	require.NoError(t, err)
	b, err := pool.GetConnection("passthrough:///ledger-b:50051")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
}

func TestPool_ReplacesClosedConnection(t *testing.T) {
	pool := NewPool()
	defer pool.Close()

	first, err := pool.GetConnection("passthrough:///ledger:50051")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := pool.GetConnection("passthrough:///ledger:50051")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestPool_InvalidateClosesAndRedials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pool := NewPool(WithLogger(zap.New(core)))
	defer pool.Close()

	first, err := pool.GetConnection("passthrough:///ledger:50051")
	require.NoError(t, err)
	require.NoError(t, pool.Invalidate("passthrough:///ledger:50051"))
	assert.Equal(t, connectivity.Shutdown, first.GetState())

	second, err := pool.GetConnection("passthrough:///ledger:50051")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// 未知的 target 不是錯誤
	assert.NoError(t, pool.Invalidate("passthrough:///unknown:50051"))

	assert.Equal(t, 2, logs.FilterMessage("gRPC connection created").Len())
	assert.Equal(t, 1, logs.FilterMessage("gRPC connection invalidated").Len())
}

func TestPool_ClosedPoolRefusesConnections(t *testing.T) {
	pool := NewPool()
	conn, err := pool.GetConnection("passthrough:///ledger:50051")
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.Equal(t, connectivity.Shutdown, conn.GetState())

	_, err = pool.GetConnection("passthrough:///ledger:50051")
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_ChainsInterceptorsInOrder(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	go func() { _ = server.Serve(lis) }()
	defer server.Stop()

	var calls []string
	record := func(name string) grpc.UnaryClientInterceptor {
		return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			calls = append(calls, name)
			return invoker(ctx, method, req, reply, cc, opts...)
		}
	}
	pool := NewPool(
		WithInterceptor(record("first")),
		WithInterceptor(record("second")),
		WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})),
	)
	defer pool.Close()

	conn, err := pool.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)

	// 伺服器沒有註冊任何服務，但請求仍經過攔截器並以 JSON 送出
	err = conn.Invoke(context.Background(), "/ledger.v1.Ledger/GetBalance", &struct{}{}, &struct{}{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestJSONCodec_Registered(t *testing.T) {
	codec := encoding.GetCodec(JSONCodecName)
	require.NotNil(t, codec)

	type msg struct {
		AccountID string `json:"account_id"`
		Amount    int64  `json:"amount"`
	}
	data, err := codec.Marshal(&msg{AccountID: "a", Amount: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"account_id":"a","amount":3}`, string(data))

	var out msg
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, msg{AccountID: "a", Amount: 3}, out)
}
