package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/blueharbor/divebook/internal/config"
	"github.com/blueharbor/divebook/internal/domain"
	"github.com/blueharbor/divebook/internal/repository"
	"github.com/blueharbor/divebook/internal/token"
)

type AuthService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
	tokens  *token.Manager
}

func NewAuthService(db *pgxpool.Pool, queries *repository.Queries, tokens *token.Manager) *AuthService {
	return &AuthService{db: db, queries: queries, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, password string, role domain.Role) (*domain.User, *token.Pair, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))

	if firstName == "" || lastName == "" {
		return nil, nil, &domain.ValidationError{Field: "name", Reason: "first and last name are required"}
	}
	if !strings.Contains(email, "@") {
		return nil, nil, &domain.ValidationError{Field: "email", Reason: "valid email is required"}
	}
	if len(password) < config.MinPasswordLen {
		return nil, nil, &domain.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", config.MinPasswordLen)}
	}
	if role != domain.RoleRegular && role != domain.RoleDiveOperator {
		return nil, nil, &domain.ValidationError{Field: "role", Reason: "must be regular or dive_operator"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, domain.ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *token.Pair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidLogin
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, domain.ErrInvalidLogin
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidLogin
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	userID, err := s.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, token.ErrInvalidToken
	}
	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

// ResolveUser maps a bearer access token to the user it identifies.
// Inactive and deleted users resolve to nothing.
func (s *AuthService) ResolveUser(ctx context.Context, accessToken string) (*domain.User, error) {
	userID, err := s.tokens.Verify(accessToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, token.ErrInvalidToken
	}
	return user, nil
}
