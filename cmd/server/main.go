package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/auth"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/countdown"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/deposits"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/engine"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/handlers/auctions"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/handlers/ledger"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/handlers/wallets"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/middleware"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/realtime"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/scheduler"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	dydbstore "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb"
	memstore "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/memory"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	store, sched := buildStorage(logger)

	hub := realtime.NewHub(logger)

	depositProvider := deposits.NewWalletFlagProvider(store)
	eng := engine.New(store, hub, depositProvider, logger)

	coordinator := countdown.New(store, eng, hub, sched, envDuration("SWEEP_INTERVAL_SECONDS", 15*time.Second), logger)
	if window := envDuration("SOFT_CLOSE_WINDOW_SECONDS", 0); window > 0 {
		eng.EnableSoftClose(coordinator, window, envInt64("SOFT_CLOSE_EXTEND_MINUTES", 2))
	}

	authenticator := auth.NewStatic(auth.ParseStaticTokens(os.Getenv("AUTH_TOKENS")))
	limiter := realtime.NewUserRateLimiter(5, 10)
	gateway := realtime.NewGateway(store, eng, hub, authenticator, limiter, logger)

	auctionsHandler := auctions.NewAuctionsHandler(store)
	walletsHandler := wallets.NewWalletsHandler(store)
	ledgerHandler := ledger.NewLedgerHandler(store)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))

	router.Get("/auctions", auctionsHandler.ListAuctions)
	router.Get("/auctions/{auctionId}", auctionsHandler.GetAuction)
	router.Get("/auctions/{auctionId}/bids", auctionsHandler.ListAuctionBids)
	router.Post("/wallets", walletsHandler.CreateWallet)
	router.Get("/wallets", walletsHandler.ListWallets)
	router.Get("/wallets/{userId}", walletsHandler.GetWalletByUserId)
	router.Get("/ledger", ledgerHandler.ListLedgerEntries)
	router.Get("/admin-log", ledgerHandler.ListAdminActions)
	router.Handle("/ws", gateway)
	router.Handle("/metrics", promhttp.Handler())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go coordinator.Run(ctx)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// buildStorage selects the storage backend. STORAGE_BACKEND=memory runs
// fully in-process for local development; anything else expects the
// DynamoDB tables and the SQS deadline queue.
func buildStorage(logger *slog.Logger) (storage.Storage, scheduler.Scheduler) {
	if os.Getenv("STORAGE_BACKEND") == "memory" {
		logger.Info("using in-memory storage")
		return memstore.New(), nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logger.Error("unable to load SDK config", "error", err)
		os.Exit(1)
	}

	auctionsTable := os.Getenv("DYNAMODB_AUCTIONS_TABLE_NAME")
	bidsTable := os.Getenv("DYNAMODB_BIDS_TABLE_NAME")
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	auditTable := os.Getenv("DYNAMODB_AUDIT_TABLE_NAME")
	opsLogTable := os.Getenv("DYNAMODB_OPSLOG_TABLE_NAME")
	if auctionsTable == "" || bidsTable == "" || walletsTable == "" || auditTable == "" || opsLogTable == "" {
		logger.Error("one or more DynamoDB table name environment variables are not set")
		os.Exit(1)
	}

	queueURL := os.Getenv("SQS_DEADLINE_QUEUE_URL")
	if queueURL == "" {
		logger.Error("SQS_DEADLINE_QUEUE_URL environment variable not set")
		os.Exit(1)
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)
	store := dydbstore.New(dbClient, auctionsTable, bidsTable, walletsTable, auditTable, opsLogTable)
	sched := scheduler.NewSQSScheduler(sqs.NewFromConfig(cfg), queueURL)
	return store, sched
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
