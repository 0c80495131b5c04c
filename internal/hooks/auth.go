package hooks

import (
	"context"
	"time"

	"zurura-client/internal/auth"
	"zurura-client/internal/model"
	"zurura-client/internal/query"
	"zurura-client/internal/session"
)

type credentials struct {
	email    string
	password string
}

type Auth struct {
	service *auth.Service
	cache   *query.Client

	login            *query.Mutation[credentials, auth.Result]
	register         *query.Mutation[model.RegisterRequest, auth.Result]
	registerOperator *query.Mutation[model.OperatorRegisterRequest, auth.Result]
	logout           *query.Mutation[struct{}, struct{}]
}

func NewAuth(service *auth.Service, cache *query.Client) *Auth {
	h := &Auth{service: service, cache: cache}

	seed := func(_ context.Context, result auth.Result) {
		h.cache.Clear()
		h.cache.SetData(keyProfile, result.User, profileStaleTime)
	}

	h.login = query.NewMutation(func(ctx context.Context, c credentials) (auth.Result, error) {
		return h.service.Login(ctx, c.email, c.password)
	}, query.MutationHooks[credentials, auth.Result]{
		OnSuccess: func(ctx context.Context, _ credentials, r auth.Result) { seed(ctx, r) },
	})

	h.register = query.NewMutation(h.service.Register, query.MutationHooks[model.RegisterRequest, auth.Result]{
		OnSuccess: func(ctx context.Context, _ model.RegisterRequest, r auth.Result) { seed(ctx, r) },
	})

	h.registerOperator = query.NewMutation(h.service.RegisterOperator, query.MutationHooks[model.OperatorRegisterRequest, auth.Result]{
		OnSuccess: func(ctx context.Context, _ model.OperatorRegisterRequest, r auth.Result) { seed(ctx, r) },
	})

	h.logout = query.NewMutation(func(ctx context.Context, _ struct{}) (struct{}, error) {
		err := h.service.Logout(ctx)
		// Cleared even when the remote call fails.
		h.cache.Clear()
		return struct{}{}, err
	}, query.MutationHooks[struct{}, struct{}]{})

	return h
}

func (h *Auth) Login(ctx context.Context, email string, password string) (auth.Result, error) {
	return h.login.Mutate(ctx, credentials{email: email, password: password})
}

func (h *Auth) Register(ctx context.Context, req model.RegisterRequest) (auth.Result, error) {
	return h.register.Mutate(ctx, req)
}

func (h *Auth) RegisterOperator(ctx context.Context, req model.OperatorRegisterRequest) (auth.Result, error) {
	return h.registerOperator.Mutate(ctx, req)
}

func (h *Auth) Logout(ctx context.Context) error {
	_, err := h.logout.Mutate(ctx, struct{}{})
	return err
}

func (h *Auth) IsAuthenticated(ctx context.Context) bool {
	return h.service.IsAuthenticated(ctx)
}

func (h *Auth) CurrentUser(ctx context.Context) (model.User, bool) {
	return h.service.CurrentUser(ctx)
}

func (h *Auth) SessionRemaining(ctx context.Context) (time.Duration, bool) {
	return h.service.SessionRemaining(ctx)
}

func (h *Auth) State() session.State {
	return h.service.State()
}

func (h *Auth) IsLoggingIn() bool {
	return h.login.IsPending()
}

func (h *Auth) IsRegistering() bool {
	return h.register.IsPending() || h.registerOperator.IsPending()
}

func (h *Auth) IsLoggingOut() bool {
	return h.logout.IsPending()
}
