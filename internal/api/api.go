// Package api maps each backend operation to one typed call. It holds no
// state and does no validation, caching or retrying.
package api

import (
	"context"
	"net/url"
	"strconv"

	"zurura-client/internal/httpclient"
)

// Doer is implemented by *httpclient.Client.
type Doer interface {
	Do(ctx context.Context, req *httpclient.Request, out any) (int, error)
}

type Response[T any] struct {
	Data   T
	Status int
}

type API struct {
	Auth      *Auth
	Routes    *Routes
	Schedules *Schedules
	Bookings  *Bookings
	Profile   *Profile
}

func New(c Doer) *API {
	return &API{
		Auth:      &Auth{c: c},
		Routes:    &Routes{c: c},
		Schedules: &Schedules{c: c},
		Bookings:  &Bookings{c: c},
		Profile:   &Profile{c: c},
	}
}

func call[T any](ctx context.Context, c Doer, req *httpclient.Request) (Response[T], error) {
	var out T
	status, err := c.Do(ctx, req, &out)
	if err != nil {
		return Response[T]{Status: status}, err
	}
	return Response[T]{Data: out, Status: status}, nil
}

func segment(id string) string {
	return url.PathEscape(id)
}

// query keeps only parameters with a value.
type query url.Values

func (q query) str(key string, value string) {
	if value != "" {
		url.Values(q).Set(key, value)
	}
}

func (q query) positive(key string, value int) {
	if value > 0 {
		url.Values(q).Set(key, strconv.Itoa(value))
	}
}

func (q query) values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}
