//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/ojalink/ojalink/libs/db"
)

// gRPC entitlements serving requires generated protobuf code (build with -tags protogen).
func startGrpcServer(ctx context.Context, logger *slog.Logger, pool *db.Pool) error {
	logger.Info("grpc server disabled (build without protogen tag)")
	return nil
}
