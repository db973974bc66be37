package grpc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ErrPoolClosed Close 之後不再建立新連線
var ErrPoolClosed = errors.New("grpc pool closed")

// Pool 每個目標地址共用一條 ClientConn，可多個 goroutine 同時使用
//
// grpc.NewClient 不會立即連線，所以建立連線的動作直接在鎖內完成
type Pool struct {
	mu     sync.Mutex
	conns  map[string]*grpc.ClientConn
	closed bool

	interceptors  []grpc.UnaryClientInterceptor
	dialOpts      []grpc.DialOption
	keepaliveTime time.Duration
	logger        *zap.Logger
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*Pool)

// WithInterceptor 加入一個 UnaryClientInterceptor，多次呼叫時依加入順序串接
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) {
		p.interceptors = append(p.interceptors, interceptor)
	}
}

// WithKeepaliveTime 設定無活動時發送 Ping 的間隔 (gRPC 最小值為 10 秒)
func WithKeepaliveTime(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.keepaliveTime = d
	}
}

// WithDialOptions 每條連線都會帶上的額外選項，排在預設值之後
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(p *Pool) {
		p.dialOpts = append(p.dialOpts, opts...)
	}
}

func WithLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool 建立連線池，預設 keepalive 30 秒、不記錄日誌
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		conns:         make(map[string]*grpc.ClientConn),
		keepaliveTime: 30 * time.Second,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 取得 target 的共用連線，沒有或已關閉時重新建立
//
// 參數:
//
//	target: 目標地址 (e.g., "localhost:50051" 或 "dns:///ledger:50051")
//	opts: 只在這次建立連線時使用的額外選項
//
// 回傳值:
//
//	*grpc.ClientConn: 共用的連線，呼叫端不應自行 Close，改用 Invalidate
//	error: Pool 已關閉或 target 無法解析
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if conn, ok := p.conns[target]; ok {
		if conn.GetState() != connectivity.Shutdown {
			return conn, nil
		}
		p.logger.Info("Replacing closed gRPC connection", zap.String("target", target))
		delete(p.conns, target)
	}

	conn, err := grpc.NewClient(target, p.dialOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
	}
	p.conns[target] = conn
	p.logger.Debug("gRPC connection created", zap.String("target", target))
	return conn, nil
}

// dialOptions 順序: 預設值、Pool 層級選項、單次呼叫選項，後者覆蓋前者
func (p *Pool) dialOptions(extra []grpc.DialOption) []grpc.DialOption {
	opts := []grpc.DialOption{
		// 內部服務在私有網路中通訊，不使用 TLS
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    p.keepaliveTime,
			Timeout: time.Second,
			// 只在有進行中的呼叫時 Ping，避免被 Server 以 too_many_pings 斷線
			PermitWithoutStream: false,
		}),
		// 帳務訊息以 JSON codec 編碼 (見 codec.go)
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(JSONCodecName)),
	}
	if len(p.interceptors) > 0 {
		opts = append(opts, grpc.WithChainUnaryInterceptor(p.interceptors...))
	}
	opts = append(opts, p.dialOpts...)
	return append(opts, extra...)
}

// Invalidate 關閉並移除 target 的連線，下次 GetConnection 會重新建立
func (p *Pool) Invalidate(target string) error {
	p.mu.Lock()
	conn, ok := p.conns[target]
	delete(p.conns, target)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	p.logger.Info("gRPC connection invalidated", zap.String("target", target))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("close grpc connection to %s: %w", target, err)
	}
	return nil
}

// Close 關閉所有連線，之後的 GetConnection 回傳 ErrPoolClosed
func (p *Pool) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*grpc.ClientConn)
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for target, conn := range conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close grpc connection to %s: %w", target, err))
		}
	}
	return errors.Join(errs...)
}
