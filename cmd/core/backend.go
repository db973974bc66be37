package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	database_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/database"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/grpcclient"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/httpclient"
	memory_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/internal/config"
	"github.com/JoeShih716/go-account-ledger/pkg/database"
	grpcpool "github.com/JoeShih716/go-account-ledger/pkg/grpc"
	"github.com/JoeShih716/go-account-ledger/pkg/wal"
)

// newLedger 依設定建立帳本後端，之後呼叫端只看得到 usecase.Ledger
//
// 回傳:
//
//	usecase.Ledger: 帳本後端
//	func(): 釋放資源 (WAL / DB / 連線池)
//	error: 初始化失敗
func newLedger(ctx context.Context, cfg *config.Config, log *zap.Logger) (usecase.Ledger, func(), error) {
	log = log.With(zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case config.BackendMemory, config.BackendEngine:
		var journal *wal.WAL
		closeJournal := func() {}
		if cfg.Memory.WALPath != "" {
			var err error
			journal, err = wal.NewWAL(cfg.Memory.WALPath)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open WAL: %w", err)
			}
			closeJournal = func() {
				if err := journal.Close(); err != nil {
					log.Error("Failed to close WAL", zap.Error(err))
				}
			}
		}

		if cfg.Backend == config.BackendMemory {
			ledger, err := memory_adapter.NewMutexLedger(journal)
			if err != nil {
				closeJournal()
				return nil, nil, fmt.Errorf("failed to init MutexLedger: %w", err)
			}
			log.Info("Memory ledger ready", zap.String("wal", cfg.Memory.WALPath))
			return ledger, closeJournal, nil
		}

		engine, err := memory_adapter.NewEngineLedger(journal, cfg.Memory.EngineBuffer)
		if err != nil {
			closeJournal()
			return nil, nil, fmt.Errorf("failed to init EngineLedger: %w", err)
		}
		// 引擎的生命週期由 cleanup 控制，收到關閉信號時 Server 仍需處理進行中的請求
		engineCtx, stopEngine := context.WithCancel(context.Background())
		engine.Start(engineCtx)
		log.Info("Engine ledger ready", zap.String("wal", cfg.Memory.WALPath))
		return engine, func() {
			stopEngine()
			<-engine.Done()
			closeJournal()
		}, nil

	case config.BackendSQL:
		client, err := database.NewClient(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		ledger, err := database_adapter.NewSQLLedger(ctx, client,
			database_adapter.WithSchemaRetry(cfg.Schema.Attempts, cfg.Schema.RetryInterval),
		)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to init SQLLedger: %w", err)
		}
		log.Info("SQL ledger ready", zap.String("driver", cfg.Database.Driver))
		return ledger, func() { _ = client.Close() }, nil

	case config.BackendHTTP:
		client := httpclient.NewClient(cfg.Remote.HTTPURL,
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout}),
		)
		log.Info("Remote HTTP ledger", zap.String("url", cfg.Remote.HTTPURL))
		return client, func() {}, nil

	case config.BackendGRPC:
		pool := grpcpool.NewPool(
			grpcpool.WithInterceptor(grpcpool.LoggingInterceptor(log)),
			grpcpool.WithLogger(log),
		)
		client, err := grpcclient.NewClientFromPool(pool, cfg.Remote.GRPCTarget)
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		log.Info("Remote gRPC ledger", zap.String("target", cfg.Remote.GRPCTarget))
		return client, func() { _ = pool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
