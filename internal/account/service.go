package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"
)

// Service creates users with the signup wallet grant and manages bearer
// session tokens. Identity itself (passwords, OAuth) lives with the
// external auth provider; this service only owns the local user row and
// its wallet.
type Service struct {
	store      *store.Store
	grant      decimal.Decimal
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewService creates an account service.
func NewService(st *store.Store, cfg *config.Account, logger *zap.Logger) *Service {
	return &Service{
		store:      st,
		grant:      decimal.NewFromFloat(cfg.SignupGrant),
		sessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
		logger:     logger,
	}
}

// Signup creates a user with the signup grant and issues a session token.
// An already-registered email is rejected before any insert.
func (s *Service) Signup(ctx context.Context, email, fullName string) (*models.User, string, error) {
	if email == "" {
		return nil, "", fmt.Errorf("%w: missing email", ledger.ErrValidation)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", ledger.ErrValidation)
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, "", err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: fullName,
		Wallet:   s.grant,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	sid, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User signed up",
		zap.String("user_id", user.ID),
		zap.String("wallet_grant", s.grant.String()),
	)
	return user, sid, nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed and reported as not found.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session", ledger.ErrValidation)
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.store.DeleteSession(ctx, sessionID)
		return nil, fmt.Errorf("%w: session expired", ledger.ErrNotFound)
	}

	return s.store.GetUser(ctx, session.UserID)
}

// Logout deletes the session token.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: missing session", ledger.ErrValidation)
	}
	return s.store.DeleteSession(ctx, sessionID)
}

func (s *Service) issueSession(ctx context.Context, userID string) (string, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}
