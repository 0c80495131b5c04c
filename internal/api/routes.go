package api

import (
	"context"
	"net/http"

	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
)

type Routes struct {
	c Doer
}

// FindRoutes omits empty filters and non-positive limit/offset from the query.
func (r *Routes) FindRoutes(ctx context.Context, filter model.RouteFilter) (Response[model.RouteList], error) {
	q := query{}
	q.str("origin", filter.Origin)
	q.str("destination", filter.Destination)
	q.positive("limit", filter.Limit)
	q.positive("offset", filter.Offset)

	return call[model.RouteList](ctx, r.c, &httpclient.Request{Method: http.MethodGet, Path: "/routes", Query: q.values()})
}

func (r *Routes) GetRouteDetails(ctx context.Context, routeID string) (Response[model.RouteDetails], error) {
	return call[model.RouteDetails](ctx, r.c, &httpclient.Request{Method: http.MethodGet, Path: "/routes/" + segment(routeID)})
}
