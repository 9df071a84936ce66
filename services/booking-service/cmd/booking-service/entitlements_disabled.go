//go:build !protogen

package main

import (
	"context"
	"log/slog"
	"net/http"
)

// The entitlements debug route needs generated protobuf code (build with -tags protogen).
func setupEntitlementsRoutes(_ context.Context, _ *http.ServeMux, logger *slog.Logger) {
	logger.Info("entitlements debug route disabled (build without protogen tag)")
}
