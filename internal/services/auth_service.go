package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/jwt"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/token"
)

type authService struct {
	adminRepo repositories.AdminUserRepository
	tokens    *jwt.TokenService
	now       Clock
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(adminRepo repositories.AdminUserRepository, tokens *jwt.TokenService, now Clock) AuthService {
	return &authService{adminRepo: adminRepo, tokens: tokens, now: clockOrDefault(now)}
}

// Login checks an operator's password and issues a token carrying the account's role.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		slog.Warn("Login failed", "email", req.Email)
		return nil, ErrInvalidCredential
	}
	signed, expiresAt, err := s.tokens.Issue(user.Address, user.Role, user.Email)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt, Role: user.Role}, nil
}

// CreateOwner stores an owner account with a bcrypt password hash.
func (s *authService) CreateOwner(ctx context.Context, email, password, address string) (*models.AdminUser, error) {
	if email == "" || len(password) < 8 {
		return nil, wrap(ErrInvalidSetting, "email and a password of at least 8 characters are required")
	}
	addr, err := token.NormalizeAddress(address)
	if err != nil {
		return nil, wrap(ErrInvalidAddress, "%q", address)
	}
	if _, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(email)); err == nil {
		return nil, wrap(ErrInvalidSetting, "admin %s already exists", email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}
	now := s.now()
	return s.adminRepo.Create(ctx, &models.AdminUser{
		Email:     strings.ToLower(email),
		Password:  string(hash),
		Address:   addr,
		Role:      models.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

