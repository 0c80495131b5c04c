package api

import (
	"context"
	"net/http"

	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
)

const dateLayout = "2006-01-02"

type Schedules struct {
	c Doer
}

func (s *Schedules) List(ctx context.Context, filter model.ScheduleFilter) (Response[[]model.Schedule], error) {
	q := query{}
	q.str("route_id", filter.RouteID)
	if !filter.Date.IsZero() {
		q.str("date", filter.Date.Format(dateLayout))
	}

	return call[[]model.Schedule](ctx, s.c, &httpclient.Request{Method: http.MethodGet, Path: "/schedules", Query: q.values()})
}
