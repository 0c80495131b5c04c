package api

import (
	"context"
	"net/http"

	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
)

type Auth struct {
	c Doer
}

func (a *Auth) Login(ctx context.Context, req model.LoginRequest) (Response[model.AuthResponse], error) {
	return call[model.AuthResponse](ctx, a.c, &httpclient.Request{Method: http.MethodPost, Path: "/auth/login", Body: req})
}

func (a *Auth) Register(ctx context.Context, req model.RegisterRequest) (Response[model.AuthResponse], error) {
	return call[model.AuthResponse](ctx, a.c, &httpclient.Request{Method: http.MethodPost, Path: "/auth/register", Body: req})
}

func (a *Auth) RegisterOperator(ctx context.Context, req model.OperatorRegisterRequest) (Response[model.AuthResponse], error) {
	return call[model.AuthResponse](ctx, a.c, &httpclient.Request{Method: http.MethodPost, Path: "/auth/register/op", Body: req})
}

func (a *Auth) Logout(ctx context.Context) (Response[model.Message], error) {
	return call[model.Message](ctx, a.c, &httpclient.Request{Method: http.MethodPost, Path: "/auth/logout"})
}
