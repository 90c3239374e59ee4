/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load .env (if present) and the JSON config
  3. Initialize the ledger store backend
  4. Wire the transfer orchestrator and HTTP front end
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (default: config.json)
  -listen  Listen address override (default: from config)
  -store   Store backend override: memory|sqlite|postgres|redis

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, close the store.
*/
package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/qora/testnet-faucet/api"
	"github.com/qora/testnet-faucet/config"
	"github.com/qora/testnet-faucet/events/kafka"
	"github.com/qora/testnet-faucet/faucet"
	"github.com/qora/testnet-faucet/nem"
	memorystore "github.com/qora/testnet-faucet/store/memory"
	postgresstore "github.com/qora/testnet-faucet/store/postgres"
	redisstore "github.com/qora/testnet-faucet/store/redis"
	sqlitestore "github.com/qora/testnet-faucet/store/sqlite"
)

func main() {
	configPath := flag.String("config", "config.json", "config file path")
	listen := flag.String("listen", "", "listen address override")
	storeBackend := flag.String("store", "", "store backend override")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if *storeBackend != "" {
		os.Setenv("FAUCET_STORE", *storeBackend)
	}
	if *listen != "" {
		os.Setenv("FAUCET_LISTEN_ADDR", *listen)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store).Msg("failed to initialize ledger store")
	}
	defer closeStore()

	builder, err := nem.NewBuilder(cfg.Mosaic, cfg.Message, cfg.PublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize transaction builder")
	}

	var events faucet.EventPublisher = faucet.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		events = publisher
	}

	service := faucet.NewService(
		store,
		builder,
		nem.Ed25519Signer{},
		nem.FileKeySource{PublicKeyPath: cfg.PublicKeyPath, PrivateKeyPath: cfg.PrivateKeyPath},
		faucet.NewBroadcaster(nem.Dial(10*time.Second), log),
		events,
		cfg.Limits(),
		log,
	)

	handler := api.NewHandler(service, store, cfg.DefaultAmount(), cfg.NodeList, log)
	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := api.NewRouter(handler, limiter)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("store", cfg.Store).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}

// openStore selects the ledger backend named by the configuration.
func openStore(cfg *config.Config) (faucet.LedgerStore, func(), error) {
	switch cfg.Store {
	case "memory":
		return memorystore.New(), func() {}, nil
	case "sqlite":
		s, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, closeQuietly(s), nil
	case "postgres":
		s, err := postgresstore.New(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closeQuietly(s), nil
	default: // "redis"; config validation rejects anything else
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		return redisstore.New(rdb), closeQuietly(rdb), nil
	}
}

func closeQuietly(c io.Closer) func() {
	return func() { _ = c.Close() }
}
