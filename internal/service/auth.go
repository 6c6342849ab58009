package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/blog_dashboard/internal/hash"
	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/mykafka"
	"github.com/Skotchmaster/blog_dashboard/internal/repo"
	"github.com/Skotchmaster/blog_dashboard/internal/tokens"
	"github.com/Skotchmaster/blog_dashboard/internal/transport"
)

const TokenType = "bearer"

type AuthService struct {
	Repo   *repo.GormRepo
	Hasher *hash.Hasher
	Tokens *tokens.Service
	Events mykafka.Publisher
	Jobs   *Background

	dummyOnce sync.Once
	dummyHash string
}

// dummy returns a hash that no submitted password matches. Login verifies
// against it when the username is unknown so both failure paths cost the
// same.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.HashPassword(context.Background(), "blog-dashboard-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateRegister(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation failed", "error", err)
		return nil, err
	}
	l = l.With("username", req.Username)

	if err := s.Repo.UserAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, registerConflict(l, err)
	}

	pwHash, err := s.Hasher.HashPassword(ctx, req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, registerConflict(l, err)
	}

	publish(ctx, s.Jobs, s.Events, mykafka.Event{
		Type:     mykafka.UserRegistered,
		UserID:   user.ID,
		Username: user.Username,
	})
	l.Info("register_successful", "user_id", user.ID)
	return user, nil
}

func registerConflict(l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, repo.ErrUsernameTaken),
		errors.Is(err, repo.ErrEmailTaken),
		errors.Is(err, repo.ErrUserAlreadyExist):
		l.Warn("register_error", "status", 400, "reason", err.Error())
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return err
	}
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	user, err := s.Repo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repo.ErrUserNotFound) {
			l.Error("login_failed", "status", 500, "error", err)
			return nil, err
		}
		s.Hasher.CheckPassword(ctx, req.Password, s.dummy())
		l.Warn("login_failed", "status", 401, "reason", "unknown username")
		return nil, ErrUnauthorized
	}

	if !s.Hasher.CheckPassword(ctx, req.Password, user.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrUnauthorized
	}

	token, _, err := s.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	publish(ctx, s.Jobs, s.Events, mykafka.Event{
		Type:     mykafka.UserLoggedIn,
		UserID:   user.ID,
		Username: user.Username,
	})
	l.Info("login_successful", "user_id", user.ID)

	return &transport.LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		Username:    user.Username,
		ExpiresIn:   int64(s.Tokens.TTL() / time.Second),
	}, nil
}

// Authenticate resolves a bearer token to its user. Any token problem is
// ErrUnauthorized; a valid token for a deleted user is ErrNotFound.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return user, nil
}
