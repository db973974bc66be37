package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	http_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/in/http"
	kafka_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/kafka"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/config"
	"github.com/JoeShih716/go-account-ledger/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 初始化帳本後端 (Driven Adapter)
	ledger, cleanup, err := newLedger(ctx, cfg, appLogger.With(zap.String("component", "ledger")))
	if err != nil {
		appLogger.Fatal("Failed to init ledger", zap.Error(err))
	}
	defer cleanup()

	// 3. 初始化 UseCase
	var opts []usecase.CoreOption
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka_adapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, appLogger.With(zap.String("component", "kafka")))
		defer func() {
			if err := publisher.Close(); err != nil {
				appLogger.Error("Failed to close Kafka publisher", zap.Error(err))
			}
		}()
		opts = append(opts, usecase.WithEventPublisher(publisher))
	}
	coreUseCase := usecase.NewCoreUseCase(ledger, appLogger.With(zap.String("component", "usecase")), opts...)

	// 4. 啟動 gRPC Server (Driving Adapter)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		appLogger.Fatal("Failed to listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}
	grpcServer, healthServer := newGRPCServer(coreUseCase, appLogger.With(zap.String("component", "grpc")))

	errCh := make(chan error, 2)
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", cfg.GRPC.Addr))
		errCh <- grpcServer.Serve(lis)
	}()

	// 5. 啟動 HTTP Server
	httpServer := http_adapter.NewHttpServer(cfg.HTTP.Addr, coreUseCase, appLogger.With(zap.String("component", "http")))
	go func() {
		errCh <- httpServer.Run()
	}()

	// Graceful Shutdown
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down server...")
	case err := <-errCh:
		appLogger.Error("Server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	appLogger.Info("Server exited")
}
