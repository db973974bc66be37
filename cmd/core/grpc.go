package main

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-account-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-account-ledger/pkg/ledgerrpc"
)

// newGRPCServer 註冊帳本、健康檢查與 reflection 服務
//
// ledger.v1.Ledger 使用 JSON codec，沒有 proto 描述檔：
// reflection 只能列出服務名稱，grpcurl describe 不可用；health 服務則完整可查
func newGRPCServer(ledger usecase.Ledger, logger *zap.Logger) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	ledgerrpc.RegisterLedgerServer(grpcServer, grpc_adapter.NewGrpcServer(ledger, logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ledgerrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)
	return grpcServer, healthServer
}
