package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ojalink/ojalink/libs/config"
	"github.com/ojalink/ojalink/libs/httpx"
	otelx "github.com/ojalink/ojalink/libs/otel"
	"github.com/ojalink/ojalink/libs/runtime"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	mux := runtime.NewBaseMuxWithReady()
	registerRoutes(mux, authConfigFromEnv())

	rateLimitMW, closeLimiter := buildRateLimiter(logger)
	defer closeLimiter()

	handler := httpx.Chain(mux,
		httpx.WithCORS(corsPolicyFromEnv()),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(intEnv("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(intEnv("REQUEST_TIMEOUT_SECONDS", 10))*time.Second),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// buildRateLimiter prefers the Redis-backed limiter so multiple gateway
// replicas share one budget; without REDIS_ADDR it falls back to the
// in-process limiter.
func buildRateLimiter(logger *slog.Logger) (httpx.Middleware, func()) {
	perMinute := intEnv("RATE_LIMIT_PER_MINUTE", 60)

	addr := strings.TrimSpace(config.String("REDIS_ADDR", ""))
	if addr == "" {
		logger.Info("rate limiting enabled (in-memory)", "per_minute", perMinute)
		return httpx.NewRateLimiter(perMinute, time.Minute).Middleware(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       intEnv("REDIS_DB", 0),
	})
	rl := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
	logger.Info("rate limiting enabled (redis)", "per_minute", perMinute, "redis_addr", addr)
	return rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true"))), func() { _ = rdb.Close() }
}

func corsPolicyFromEnv() httpx.CORSPolicy {
	return httpx.CORSPolicy{
		AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
		AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")),
		AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id,Idempotency-Key")),
		AllowCredentials: isTruthy(config.String("CORS_ALLOW_CREDENTIALS", "false")),
		MaxAge:           time.Duration(intEnv("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
	}
}

func intEnv(name string, fallback int) int {
	v, err := strconv.Atoi(config.String(name, strconv.Itoa(fallback)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func isTruthy(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
