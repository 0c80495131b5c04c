package hooks

import (
	"context"

	"zurura-client/internal/api"
	"zurura-client/internal/model"
	"zurura-client/internal/query"
)

type Schedules struct {
	api   *api.Schedules
	cache *query.Client
}

func NewSchedules(schedulesAPI *api.Schedules, cache *query.Client) *Schedules {
	return &Schedules{api: schedulesAPI, cache: cache}
}

func (h *Schedules) List(ctx context.Context, filter model.ScheduleFilter) ([]model.Schedule, error) {
	return h.query(filter).Fetch(ctx)
}

func (h *Schedules) State(ctx context.Context, filter model.ScheduleFilter) query.State[[]model.Schedule] {
	return h.query(filter).State(ctx)
}

func (h *Schedules) query(filter model.ScheduleFilter) *query.Query[[]model.Schedule] {
	date := ""
	if !filter.Date.IsZero() {
		date = filter.Date.Format("2006-01-02")
	}

	key := query.Key{"schedules", filter.RouteID, date}
	return query.NewQuery(h.cache, key, func(ctx context.Context) ([]model.Schedule, error) {
		resp, err := h.api.List(ctx, filter)
		return resp.Data, err
	})
}
