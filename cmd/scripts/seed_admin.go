package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/config"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	mongorepo "github.com/ArowuTest/daily-lotto-settlement/internal/repositories/mongodb"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/jwt"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/mongodb"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
)

// seed_admin creates the owner account, or with -token-role issues a player or oracle token.
//
//	go run ./cmd/scripts -email ops@example.com -password ... -address 0x...
//	go run ./cmd/scripts -token-role player -address 0x...
func main() {
	email := flag.String("email", "", "owner email")
	password := flag.String("password", "", "owner password")
	address := flag.String("address", "", "wallet address of the owner or token subject")
	tokenRole := flag.String("token-role", "", "issue a token for this role (player or oracle) instead of creating the owner")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *tokenRole != "" {
		if err := issueToken(cfg, *tokenRole, *address); err != nil {
			slog.Error("Failed to issue token", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := createOwner(ctx, cfg, *email, *password, *address); err != nil {
		slog.Error("Failed to create owner", "error", err)
		os.Exit(1)
	}
}

func createOwner(ctx context.Context, cfg *config.Config, email, password, address string) error {
	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, 10*time.Second)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	if err := mongorepo.EnsureIndexes(ctx, client, cfg.MongoDB.Database); err != nil {
		return err
	}
	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	if err != nil {
		return err
	}
	store := mongorepo.NewStore(client, cfg.MongoDB.Database)
	auth := services.NewAuthService(store.AdminUsers, tokens, nil)
	user, err := auth.CreateOwner(ctx, email, password, address)
	if err != nil {
		return err
	}
	slog.Info("Owner created", "email", user.Email, "address", user.Address)
	return nil
}

func issueToken(cfg *config.Config, role, address string) error {
	if role != models.RolePlayer && role != models.RoleOracle {
		return fmt.Errorf("role must be %s or %s, got %q", models.RolePlayer, models.RoleOracle, role)
	}
	subject, err := token.NormalizeAddress(address)
	if err != nil {
		return err
	}
	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	if err != nil {
		return err
	}
	signed, expiresAt, err := tokens.Issue(subject, role, "")
	if err != nil {
		return err
	}
	fmt.Println(signed)
	slog.Info("Token issued", "role", role, "subject", subject, "expiresAt", expiresAt)
	return nil
}
