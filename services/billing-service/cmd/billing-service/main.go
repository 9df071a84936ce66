package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ojalink/ojalink/libs/config"
	"github.com/ojalink/ojalink/libs/db"
	"github.com/ojalink/ojalink/libs/httpx"
	"github.com/ojalink/ojalink/libs/kafkax"
	otelx "github.com/ojalink/ojalink/libs/otel"
	"github.com/ojalink/ojalink/libs/outbox"
	"github.com/ojalink/ojalink/libs/runtime"
	"github.com/ojalink/ojalink/services/billing-service/internal/consumer"
	"github.com/ojalink/ojalink/services/billing-service/internal/gate"
	"github.com/ojalink/ojalink/services/billing-service/internal/handlers"
	"github.com/ojalink/ojalink/services/billing-service/internal/inbox"
	"github.com/ojalink/ojalink/services/billing-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "billing-service")
	port, err := config.Port("PORT", "8084")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	// Cache account registration times locally so the trial window never
	// needs a synchronous call to the account service.
	inboxRepo := inbox.NewRepository(pool)
	registeredConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "billing-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "account.registered.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AccountID    string `json:"account_id"`
			RegisteredAt string `json:"registered_at"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		registeredAt, err := time.Parse(time.RFC3339, payload.RegisteredAt)
		if err != nil || payload.AccountID == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if err := repo.UpsertAccountProfile(ctx, tx, payload.AccountID, registeredAt.UTC()); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go registeredConsumer.Run(ctx)

	limitNotifier := handlers.NewLimitNotifier(outboxRepo, repo, logger)
	freemium := gate.New(repo, repo,
		gate.WithOverride(config.Bool("FULL_ACCESS_OVERRIDE", false)),
		gate.WithLimitSignal(limitNotifier.PublishLimitReached),
	)
	usageHandler := handlers.NewUsageHandler(freemium, logger)

	tolSeconds, err := strconv.Atoi(config.String("STRIPE_WEBHOOK_TOLERANCE_SECONDS", "300"))
	if err != nil || tolSeconds <= 0 {
		tolSeconds = 300
	}
	h := handlers.New(repo, outboxRepo, logger, handlers.Config{
		StripeWebhookSecret:           config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookToleranceSeconds: tolSeconds,
		StripeSecretKey:               config.String("STRIPE_SECRET_KEY", ""),
		StripePriceStarter:            config.String("STRIPE_PRICE_STARTER", ""),
		StripePricePro:                config.String("STRIPE_PRICE_PRO", ""),
		CheckoutSuccessURL:            config.String("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:             config.String("CHECKOUT_CANCEL_URL", ""),
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/billing/usage", usageHandler.Usage)
	mux.HandleFunc("/api/v1/billing/access", usageHandler.Access)
	mux.HandleFunc("/api/v1/billing/consume", usageHandler.Consume)
	mux.HandleFunc("/api/v1/billing/checkout", h.Checkout)
	mux.HandleFunc("/api/v1/billing/checkout/session", h.CheckoutSessionStatus)
	mux.HandleFunc("/api/v1/billing/checkout/session/ack", h.AckCheckoutReturn)
	mux.HandleFunc("/api/v1/billing/subscription", h.GetSubscription)
	mux.HandleFunc("/api/v1/billing/webhooks/stripe", h.StripeWebhook)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "billing")
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

	if err := startGrpcServer(ctx, logger, pool); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
