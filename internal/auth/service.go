// Package auth runs login, registration and logout against the backend and
// keeps the session in step with the outcome.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"zurura-client/internal/api"
	"zurura-client/internal/model"
	"zurura-client/internal/session"
	"zurura-client/pkg/apierror"
)

type Result struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type Service struct {
	api     *api.Auth
	session *session.Session
	logger  *slog.Logger
}

func NewService(authAPI *api.Auth, sess *session.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: authAPI, session: sess, logger: logger}
}

func (s *Service) Login(ctx context.Context, email string, password string) (Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Result{}, model.ErrMissingCredential
	}

	return s.authenticate(ctx, func() (api.Response[model.AuthResponse], error) {
		return s.api.Login(ctx, model.LoginRequest{Email: email, Password: password})
	})
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (Result, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return Result{}, model.ErrMissingCredential
	}

	return s.authenticate(ctx, func() (api.Response[model.AuthResponse], error) {
		return s.api.Register(ctx, req)
	})
}

func (s *Service) RegisterOperator(ctx context.Context, req model.OperatorRegisterRequest) (Result, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return Result{}, model.ErrMissingCredential
	}

	return s.authenticate(ctx, func() (api.Response[model.AuthResponse], error) {
		return s.api.RegisterOperator(ctx, req)
	})
}

// Logout always ends the local session. The remote error, if any, is
// returned afterwards.
func (s *Service) Logout(ctx context.Context) error {
	local := context.WithoutCancel(ctx)

	if s.session.Token(ctx) == "" {
		s.session.End(local)
		return nil
	}

	_, err := s.api.Logout(ctx)
	s.session.End(local)
	if err != nil {
		s.logger.Warn("remote logout failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.session.IsAuthenticated(ctx)
}

func (s *Service) State() session.State {
	return s.session.State()
}

// SessionRemaining is the time left on the current token. ok is false for
// opaque tokens and without a session.
func (s *Service) SessionRemaining(ctx context.Context) (time.Duration, bool) {
	return s.session.Remaining(ctx)
}

func (s *Service) CurrentUser(ctx context.Context) (model.User, bool) {
	if !s.session.IsAuthenticated(ctx) {
		return model.User{}, false
	}
	return s.session.User(ctx)
}

func (s *Service) authenticate(ctx context.Context, send func() (api.Response[model.AuthResponse], error)) (Result, error) {
	if err := s.session.Begin(); err != nil {
		return Result{}, err
	}

	resp, err := send()
	if err != nil {
		apiErr := apierror.From(err)
		s.session.Fail(apiErr)
		return Result{}, apiErr
	}

	if message, failed := resp.Data.Failure(); failed {
		apiErr := apierror.New(resp.Status, message, "")
		s.session.Fail(apiErr)
		return Result{}, apiErr
	}

	if err := s.session.Establish(context.WithoutCancel(ctx), resp.Data.Token, resp.Data.User); err != nil {
		return Result{}, apierror.RequestFailed(err)
	}

	s.logger.Debug("authenticated", "user_id", resp.Data.User.ID, "role", resp.Data.User.Role)
	return Result{Token: resp.Data.Token, User: resp.Data.User}, nil
}
