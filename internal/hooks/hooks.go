// Package hooks turns the stateless API calls into cached, observable state
// for the views: queries with loading and fetching flags, and mutations that
// invalidate what they change.
package hooks

import (
	"context"
	"log/slog"

	"zurura-client/internal/api"
	"zurura-client/internal/auth"
	"zurura-client/internal/event"
	"zurura-client/internal/query"
	"zurura-client/internal/session"
)

const DefaultPageSize = 10

// The profile is never served from cache without asking the backend.
const profileStaleTime = 0

// Cache keys shared between hooks.
var (
	keyBookings = query.Key{"bookings"}
	keyProfile  = query.Key{"profile"}
)

func keyBooking(id string) query.Key { return query.Key{"booking", id} }

func keyRoute(id string) query.Key { return query.Key{"route", id} }

type Deps struct {
	API      *api.API
	Auth     *auth.Service
	Session  *session.Session
	Cache    *query.Client
	Bus      event.Bus
	PageSize int
	Logger   *slog.Logger
}

type Hooks struct {
	Auth      *Auth
	Routes    *Routes
	Schedules *Schedules
	Bookings  *Bookings
	Profile   *Profile
}

func New(deps Deps) *Hooks {
	if deps.Bus == nil {
		deps.Bus = event.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}

	routes := NewRoutes(deps.API.Routes, deps.Cache, deps.PageSize, deps.Logger)
	return &Hooks{
		Auth:      NewAuth(deps.Auth, deps.Cache),
		Routes:    routes,
		Schedules: NewSchedules(deps.API.Schedules, deps.Cache),
		Bookings:  NewBookings(deps.API.Bookings, routes, deps.Cache, deps.Session, deps.Bus),
		Profile:   NewProfile(deps.API.Profile, deps.Cache, deps.Session, deps.Bus),
	}
}

// signedIn gates queries that would only earn a 401 without a token.
func signedIn(sess *session.Session) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		return sess != nil && sess.Token(ctx) != ""
	}
}
