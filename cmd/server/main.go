package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/owoa/splitbill/internal/ai"
	"github.com/owoa/splitbill/internal/auth"
	"github.com/owoa/splitbill/internal/httpapi"
	"github.com/owoa/splitbill/internal/ratelimit"
	"github.com/owoa/splitbill/internal/service"
	"github.com/owoa/splitbill/internal/storage"
	redisstore "github.com/owoa/splitbill/internal/storage/redis"
	"github.com/owoa/splitbill/internal/storage/sqlite"
	"github.com/owoa/splitbill/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/splitbill.db")
	port := getEnv("PORT", "8080")

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	// The attempt ledger defaults to the same SQLite database; REDIS_ADDR
	// switches it to a shared Redis instance for multi-replica deployments.
	var attempts storage.AttemptStore = store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		attempts = redisstore.New(rdb)
		slog.Info("Attempt ledger on Redis", "addr", addr)
	}

	var limiterOpts []ratelimit.Option
	if getEnv("RATE_LIMIT_FAIL_CLOSED", "false") == "true" {
		limiterOpts = append(limiterOpts, ratelimit.WithFailClosed(true))
	}
	limiter := ratelimit.New(attempts, limiterOpts...)

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		slog.Error("OPENROUTER_API_KEY is missing")
		os.Exit(1)
	}
	parser := ai.NewOpenRouterClient(apiKey, getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"))

	jwtManager := auth.NewJWTManager(getEnv("SESSION_SECRET", "dev-secret-change-me"), 24*time.Hour)

	server := httpapi.NewServer(httpapi.Dependencies{
		Addr:          fmt.Sprintf(":%s", port),
		AccessService: service.NewAccessService(store, limiter),
		ResultService: service.NewResultService(store, parser),
		JWTManager:    jwtManager,
	})

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(server.Handler(), &http2.Server{})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           h2cHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("Server starting", "address", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
