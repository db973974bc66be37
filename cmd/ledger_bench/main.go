package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/grpcclient"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/out/httpclient"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	grpcpool "github.com/JoeShih716/go-account-ledger/pkg/grpc"
	"github.com/JoeShih716/go-account-ledger/pkg/logger"
)

func main() {
	transport := flag.String("transport", "grpc", "grpc or http")
	addr := flag.String("addr", "localhost:50051", "ledger address (grpc target or http base url)")
	workers := flag.Int("workers", 1000, "number of concurrent withdrawals")
	amount := flag.Int64("amount", 10, "amount per withdrawal")
	timeout := flag.Duration("timeout", 120*time.Second, "overall timeout")
	flag.Parse()

	appLogger, err := logger.New("info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ledger, closeFn, err := dial(*transport, *addr, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create client", zap.Error(err))
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := Run(ctx, ledger, *workers, *amount)
	if err != nil {
		appLogger.Error("Benchmark failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Account:        %s\n", report.AccountID)
	fmt.Printf("Initial:        %d\n", report.Initial)
	fmt.Printf("Successes:      %d\n", report.Successes)
	fmt.Printf("Insufficient:   %d\n", report.Insufficient)
	fmt.Printf("Errors:         %d\n", report.Errors)
	fmt.Printf("Final balance:  %d\n", report.Final)
	fmt.Printf("Completed %d requests in %v\n", *workers, report.Elapsed)
	fmt.Printf("TPS: %.2f\n", float64(*workers)/report.Elapsed.Seconds())

	if !report.Consistent() {
		appLogger.Error("Ledger is inconsistent",
			zap.Int64("expected_final", report.Initial-int64(report.Successes)*report.Amount),
			zap.Int64("final", report.Final),
		)
		os.Exit(1)
	}
}

func dial(transport, addr string, log *zap.Logger) (usecase.Ledger, func(), error) {
	switch transport {
	case "grpc":
		pool := grpcpool.NewPool(
			grpcpool.WithInterceptor(grpcpool.LoggingInterceptor(log)),
			grpcpool.WithLogger(log),
		)
		client, err := grpcclient.NewClientFromPool(pool, addr)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = pool.Close() }, nil
	case "http":
		return httpclient.NewClient(addr), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", transport)
	}
}
