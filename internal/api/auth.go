package api

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/hirelink/internal/session"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a new account
type RegisterRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Role     session.Role `json:"role"`
}

// AuthPayload is returned by login and register. The caller decides
// whether to persist it.
type AuthPayload struct {
	Token string           `json:"token"`
	User  session.Identity `json:"user"`
}

// AuthService wraps the authentication endpoints
type AuthService struct {
	c *Client
}

// Auth returns the authentication endpoints
func (c *Client) Auth() *AuthService {
	return &AuthService{c: c}
}

// Login exchanges credentials for a token and identity
func (s *AuthService) Login(ctx context.Context, email, password string) Result[AuthPayload] {
	return Do[AuthPayload](ctx, s.c, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   LoginRequest{Email: email, Password: password},
	})
}

// Register creates an account and returns its first session
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) Result[AuthPayload] {
	return Do[AuthPayload](ctx, s.c, Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   req,
	})
}

// Me returns the identity behind the current credential
func (s *AuthService) Me(ctx context.Context) Result[session.Identity] {
	return Do[session.Identity](ctx, s.c, Request{Path: "/auth/me"})
}
