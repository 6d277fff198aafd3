package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/api/routes"
	"github.com/ArowuTest/daily-lotto-settlement/internal/config"
	"github.com/ArowuTest/daily-lotto-settlement/internal/handlers"
	"github.com/ArowuTest/daily-lotto-settlement/internal/keeper"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/daily-lotto-settlement/internal/repositories/mongodb"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/eventbus"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/jwt"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/mongodb"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/vrf"
)

const keeperLockKey = "daily-lotto:keeper"

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tok, err := openToken(ctx, cfg)
	if err != nil {
		return err
	}

	coordinator := vrf.NewLocalCoordinator(vrf.LocalConfig{
		Secret:              cfg.VRF.Secret,
		SubscriptionBalance: cfg.VRF.SubscriptionBalance,
		RequestFee:          cfg.VRF.RequestFee,
	})

	var publisher eventbus.Publisher = eventbus.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("Publishing ledger events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Error closing event publisher", "error", err)
		}
	}()

	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	if err != nil {
		return err
	}

	svc := services.New(services.Deps{
		Store:       store,
		Token:       tok,
		Coordinator: coordinator,
		Publisher:   publisher,
		Tokens:      tokens,
		Rules:       services.RulesFromConfig(cfg.Lottery),
	})
	if err := svc.Draws.Bootstrap(ctx); err != nil {
		return err
	}

	if cfg.Keeper.Enabled {
		k := keeper.New(svc.Draws, svc.Prizes, coordinator.Fulfillments(), keeperLock(cfg), keeper.Config{
			Schedule: cfg.Keeper.Schedule,
			LockTTL:  cfg.Keeper.LockTTL,
		})
		if err := k.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := k.Stop(); err != nil {
				slog.Error("Error stopping keeper", "error", err)
			}
		}()
	}

	amounts := handlers.Amounts{Decimals: cfg.Lottery.TokenDecimals}
	router := routes.SetupRouter(cfg, &routes.Handlers{
		Auth:    handlers.NewAuthHandler(svc.Auth),
		Tickets: handlers.NewTicketHandler(svc.Tickets, svc.Prizes),
		Pools:   handlers.NewPoolHandler(svc.Pools, svc.Tickets, svc.Events, amounts),
		Draws:   handlers.NewDrawHandler(svc.Draws, svc.Prizes),
		Admin:   handlers.NewAdminHandler(svc.Admin, svc.Draws, amounts),
	}, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver, "token", cfg.Token.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server exiting")
	return nil
}

func setupLogger(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}

func openStore(ctx context.Context, cfg *config.Config) (*repositories.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		slog.Warn("Using in-memory storage; state is lost on restart")
		return memory.NewStore(), func() {}, nil
	}
	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}
	if err := mongorepo.EnsureIndexes(ctx, client, cfg.MongoDB.Database); err != nil {
		closeFn()
		return nil, nil, err
	}
	return mongorepo.NewStore(client, cfg.MongoDB.Database), closeFn, nil
}

func openToken(ctx context.Context, cfg *config.Config) (token.Token, error) {
	if cfg.Token.Driver == "erc20" {
		return token.NewERC20(ctx, token.ERC20Config{
			RPCURL:          cfg.Token.RPCURL,
			ContractAddress: cfg.Token.ContractAddress,
			OperatorKey:     cfg.Token.OperatorKey,
			ChainID:         cfg.Token.ChainID,
			TxTimeout:       cfg.Token.TxTimeout,
		})
	}
	slog.Warn("Using in-process token ledger", "treasury", cfg.Token.TreasuryAddress)
	return token.NewLedger(cfg.Token.TreasuryAddress, cfg.Token.TreasuryFunds), nil
}

func keeperLock(cfg *config.Config) keeper.Lock {
	if cfg.Redis.Addr == "" {
		return keeper.LocalLock{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return keeper.NewRedisLock(client, keeperLockKey)
}
