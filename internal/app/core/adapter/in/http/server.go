package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// HttpServer 以 gin 對外提供帳本的 HTTP/JSON 介面
type HttpServer struct {
	addr    string
	engine  *gin.Engine
	srv     *http.Server
	handler *LedgerHandler
	logger  *zap.Logger
}

func NewHttpServer(addr string, ledger usecase.Ledger, logger *zap.Logger) *HttpServer {
	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())

	s := &HttpServer{
		addr:    addr,
		engine:  engine,
		handler: NewLedgerHandler(ledger, logger),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *HttpServer) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	accounts := s.engine.Group("/accounts")
	accounts.POST("/", s.handler.CreateAccount)
	accounts.POST("/get_balance", s.handler.GetBalance)
	accounts.POST("/deposit", s.handler.Deposit)
	accounts.POST("/withdraw", s.handler.Withdraw)
}

// Handler 回傳底層的 http.Handler (測試用 httptest 掛載)
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run 阻塞直到 Server 關閉，正常關閉時回傳 nil
func (s *HttpServer) Run() error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// requestLogger 以 zap 記錄每一個請求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
