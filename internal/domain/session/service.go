// Package session implements the login, refresh, and logout flows on
// top of the token manager and the user credential check.
package session

import (
	"context"

	"github.com/medcore/medcore/internal/domain/user"
	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/auth"
)

// Authenticator is the slice of the user service the session flow needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

type Service struct {
	users  Authenticator
	tokens *auth.TokenManager
}

func NewService(users Authenticator, tokens *auth.TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Session is the login/refresh response payload.
type Session struct {
	User   *user.User      `json:"user,omitempty"`
	Tokens *auth.TokenPair `json:"tokens"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssuePair(ctx, u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Tokens: pair}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperror.Validation("refresh_token is required")
	}
	pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: pair}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperror.Validation("refresh_token is required")
	}
	return s.tokens.Revoke(ctx, refreshToken)
}
