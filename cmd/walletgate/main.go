package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/proofoftom/walletgate/adapters/directory"
	"github.com/proofoftom/walletgate/adapters/events"
	"github.com/proofoftom/walletgate/adapters/flood"
	"github.com/proofoftom/walletgate/adapters/store"
	"github.com/proofoftom/walletgate/adapters/tokenizer"
	"github.com/proofoftom/walletgate/config"
	"github.com/proofoftom/walletgate/csrf"
	"github.com/proofoftom/walletgate/logger"
	"github.com/proofoftom/walletgate/service"
	"github.com/proofoftom/walletgate/transport/http"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}

	log := logger.New(cfg.LogLevel)

	// Session signing key. Generated per process; load from secure storage
	// when grants must survive restarts.
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal("failed to generate signing key", "error", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to parse redis URL", "error", err)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Fatal("failed to create event publisher", "error", err)
	}

	userDirectory, err := directory.OpenSQLiteDirectory(cfg.DatabaseFile)
	if err != nil {
		log.Fatal("failed to open user directory", "error", err)
	}
	defer userDirectory.Close()

	linker := service.NewAccountLinker(userDirectory, events.NewWatermillPublisher(publisher), log)

	authService := service.NewAuthService(
		store.NewRedisStore(redisClient, cfg.SIWE.NonceTTL),
		flood.NewRedisGuard(redisClient),
		csrf.NewGuard([]byte(cfg.CsrfSecret)),
		linker,
		tokenizer.NewJWTTokenizer(signKey),
		log,
		service.Config{
			Domain:      cfg.SIWE.Domain,
			URI:         cfg.SIWE.URI,
			Statement:   cfg.SIWE.Statement,
			ChainID:     cfg.SIWE.ChainID,
			NonceTTL:    cfg.SIWE.NonceTTL,
			NonceLimit:  cfg.Flood.NonceLimit,
			NonceWindow: cfg.Flood.NonceWindow,
			AuthLimit:   cfg.Flood.AuthLimit,
			AuthWindow:  cfg.Flood.AuthWindow,
		},
	)

	router := http.SetupRouter(authService)

	log.Info("starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
