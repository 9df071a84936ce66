//go:build protogen

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/ojalink/ojalink/libs/db"
	"github.com/ojalink/ojalink/libs/grpcx"
	"github.com/ojalink/ojalink/libs/runtime"
	"github.com/ojalink/ojalink/services/billing-service/internal/entitlements"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// startGrpcServer serves tier entitlements to the other services.
func startGrpcServer(ctx context.Context, logger *slog.Logger, pool *db.Pool) error {
	addr := ":" + runtime.Getenv("GRPC_PORT", "9091")
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerRequestIDInterceptor()),
	)
	entitlements.Register(srv, storage.NewRepository(pool))

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "err", err)
		}
	}()

	return nil
}
