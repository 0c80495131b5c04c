package hooks

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"zurura-client/internal/api"
	"zurura-client/internal/model"
	"zurura-client/internal/query"
)

// Routes keeps the current search filter and page.
type Routes struct {
	api      *api.Routes
	cache    *query.Client
	logger   *slog.Logger
	pageSize int

	mu     sync.Mutex
	filter model.RouteFilter
}

func NewRoutes(routesAPI *api.Routes, cache *query.Client, pageSize int, logger *slog.Logger) *Routes {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Routes{
		api:      routesAPI,
		cache:    cache,
		logger:   logger,
		pageSize: pageSize,
		filter:   model.RouteFilter{Limit: pageSize},
	}
}

func (h *Routes) Filter() model.RouteFilter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filter
}

// Search applies new criteria and goes back to the first page.
func (h *Routes) Search(ctx context.Context, filter model.RouteFilter) (model.RouteList, error) {
	filter.Origin = strings.TrimSpace(filter.Origin)
	filter.Destination = strings.TrimSpace(filter.Destination)
	filter.Offset = 0
	if filter.Limit <= 0 {
		filter.Limit = h.pageSize
	}

	h.mu.Lock()
	h.filter = filter
	h.mu.Unlock()

	return h.List(ctx)
}

// ChangePage moves to offset, clamped at zero.
func (h *Routes) ChangePage(ctx context.Context, offset int) (model.RouteList, error) {
	h.mu.Lock()
	h.filter.Offset = model.ClampOffset(offset)
	h.mu.Unlock()

	return h.List(ctx)
}

// NextPage stays put on the last page.
func (h *Routes) NextPage(ctx context.Context) (model.RouteList, error) {
	list, err := h.List(ctx)
	if err != nil || list.Pagination == nil || !list.Pagination.HasNext() {
		return list, err
	}
	return h.ChangePage(ctx, list.Pagination.NextOffset())
}

// PrevPage is a no-op on the first page.
func (h *Routes) PrevPage(ctx context.Context) (model.RouteList, error) {
	filter := h.Filter()
	if filter.Offset == 0 {
		return h.List(ctx)
	}

	limit := filter.Limit
	if list, ok := h.cachedList(filter); ok && list.Pagination != nil && list.Pagination.Limit > 0 {
		limit = list.Pagination.Limit
	}
	return h.ChangePage(ctx, filter.Offset-limit)
}

// List returns the page for the current filter.
func (h *Routes) List(ctx context.Context) (model.RouteList, error) {
	list, err := h.listQuery(h.Filter()).Fetch(ctx)
	if err != nil {
		return list, err
	}

	if list.Pagination != nil {
		if err := list.Pagination.Validate(len(list.Routes)); err != nil {
			h.logger.Warn("inconsistent route pagination", "error", err)
		}
	}
	return list, nil
}

func (h *Routes) State(ctx context.Context) query.State[model.RouteList] {
	return h.listQuery(h.Filter()).State(ctx)
}

// Details is disabled for an empty id.
func (h *Routes) Details(ctx context.Context, routeID string) (model.RouteDetails, error) {
	return h.detailsQuery(routeID).Fetch(ctx)
}

func (h *Routes) DetailsState(ctx context.Context, routeID string) query.State[model.RouteDetails] {
	return h.detailsQuery(routeID).State(ctx)
}

func (h *Routes) listQuery(filter model.RouteFilter) *query.Query[model.RouteList] {
	key := query.Key{"routes", filter.Origin, filter.Destination, filter.Limit, filter.Offset}
	return query.NewQuery(h.cache, key, func(ctx context.Context) (model.RouteList, error) {
		resp, err := h.api.FindRoutes(ctx, filter)
		return resp.Data, err
	})
}

func (h *Routes) detailsQuery(routeID string) *query.Query[model.RouteDetails] {
	routeID = strings.TrimSpace(routeID)
	return query.NewQuery(h.cache, keyRoute(routeID), func(ctx context.Context) (model.RouteDetails, error) {
		resp, err := h.api.GetRouteDetails(ctx, routeID)
		return resp.Data, err
	}, query.Enabled(func(context.Context) bool { return routeID != "" }))
}

func (h *Routes) cachedList(filter model.RouteFilter) (model.RouteList, bool) {
	value, ok := h.cache.GetData(h.listQuery(filter).Key())
	if !ok {
		return model.RouteList{}, false
	}
	list, ok := value.(model.RouteList)
	return list, ok
}
