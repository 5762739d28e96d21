package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// ErrInvalidCredentials is returned for any authentication failure so that
// responses never reveal whether the account exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration and login for requesters and staff.
type AuthService struct {
	users  repository.UserRepository
	staff  repository.StaffRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// AuthResult carries a signed token and its expiry.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, staff repository.StaffRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, staff: staff, tokens: tokens, cfg: cfg}
}

// RegisterUser creates a requester account.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string, clientName *string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.New("email already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ClientName:   clientName,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginUser authenticates a requester and issues a token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt}, user, nil
}

// LoginStaff authenticates a staff member and issues a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*AuthResult, *domain.StaffMember, error) {
	member, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !member.Active {
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(member.ID, domain.SubjectTypeStaff, &member.Role)
	if err != nil {
		return nil, nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt}, member, nil
}
