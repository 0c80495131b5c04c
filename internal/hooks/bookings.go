package hooks

import (
	"context"
	"strings"

	"zurura-client/internal/api"
	"zurura-client/internal/event"
	"zurura-client/internal/model"
	"zurura-client/internal/query"
	"zurura-client/internal/session"
)

type Bookings struct {
	api     *api.Bookings
	routes  *Routes
	cache   *query.Client
	session *session.Session
	bus     event.Bus

	create *query.Mutation[model.CreateBookingRequest, model.Booking]
	cancel *query.Mutation[string, model.Message]
}

func NewBookings(bookingsAPI *api.Bookings, routes *Routes, cache *query.Client, sess *session.Session, bus event.Bus) *Bookings {
	if bus == nil {
		bus = event.Nop{}
	}

	h := &Bookings{api: bookingsAPI, routes: routes, cache: cache, session: sess, bus: bus}

	h.create = query.NewMutation(func(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error) {
		resp, err := h.api.Create(ctx, req)
		return resp.Data, err
	}, query.MutationHooks[model.CreateBookingRequest, model.Booking]{
		OnSuccess: func(_ context.Context, _ model.CreateBookingRequest, booking model.Booking) {
			h.cache.Invalidate(keyBookings)
			if booking.ID != "" {
				h.bookingQuery(booking.ID).SetData(booking)
			}
			h.bus.Publish(event.New(event.TypeBookingCreated, booking.UserID, booking))
		},
	})

	h.cancel = query.NewMutation(func(ctx context.Context, id string) (model.Message, error) {
		resp, err := h.api.Cancel(ctx, id)
		return resp.Data, err
	}, query.MutationHooks[string, model.Message]{
		OnSuccess: func(_ context.Context, id string, _ model.Message) {
			h.cache.Invalidate(keyBookings)
			h.cache.Invalidate(keyBooking(id))
			h.bus.Publish(event.New(event.TypeBookingCancelled, "", map[string]string{"booking_id": id}))
		},
	})

	return h
}

// List is idle without a session.
func (h *Bookings) List(ctx context.Context) ([]model.Booking, error) {
	return h.listQuery().Fetch(ctx)
}

func (h *Bookings) Refresh(ctx context.Context) ([]model.Booking, error) {
	return h.listQuery().Refetch(ctx)
}

func (h *Bookings) ListState(ctx context.Context) query.State[[]model.Booking] {
	return h.listQuery().State(ctx)
}

func (h *Bookings) Get(ctx context.Context, id string) (model.Booking, error) {
	return h.bookingQuery(id).Fetch(ctx)
}

func (h *Bookings) State(ctx context.Context, id string) query.State[model.Booking] {
	return h.bookingQuery(id).State(ctx)
}

// Create checks the seat selection before anything is sent.
func (h *Bookings) Create(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error) {
	if err := h.requireCommuter(ctx); err != nil {
		return model.Booking{}, err
	}
	req.BusID = strings.TrimSpace(req.BusID)
	switch {
	case req.BusID == "":
		return model.Booking{}, model.ErrMissingID
	case len(req.Seats.SeatNumbers) == 0 || req.Seats.Count <= 0:
		return model.Booking{}, model.ErrNoSeats
	case !req.Seats.Valid():
		return model.Booking{}, model.ErrInvalidSeats
	case !req.PaymentMethod.Valid():
		return model.Booking{}, model.ErrInvalidPayment
	}

	return h.create.Mutate(ctx, req)
}

// Cancel leaves the status check to the backend.
func (h *Bookings) Cancel(ctx context.Context, id string) (model.Message, error) {
	if err := h.requireCommuter(ctx); err != nil {
		return model.Message{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Message{}, model.ErrMissingID
	}
	return h.cancel.Mutate(ctx, id)
}

// Quote is the fare to display for a seat selection on a route.
func (h *Bookings) Quote(ctx context.Context, routeID string, seats model.Seats) (model.Amount, error) {
	if !seats.Valid() {
		return 0, model.ErrInvalidSeats
	}
	if strings.TrimSpace(routeID) == "" {
		return 0, model.ErrMissingID
	}

	details, err := h.routes.Details(ctx, routeID)
	if err != nil {
		return 0, err
	}
	return model.QuoteFare(details.Route.BaseFare, seats), nil
}

// requireCommuter refuses booking changes for operator and driver accounts.
// An unknown role is left to the backend.
func (h *Bookings) requireCommuter(ctx context.Context) error {
	if h.session == nil {
		return nil
	}
	switch h.session.Role(ctx) {
	case model.RoleOperator, model.RoleDriver:
		return model.ErrRoleNotAllowed
	}
	return nil
}

func (h *Bookings) IsCreating() bool {
	return h.create.IsPending()
}

func (h *Bookings) IsCancelling() bool {
	return h.cancel.IsPending()
}

func (h *Bookings) listQuery() *query.Query[[]model.Booking] {
	return query.NewQuery(h.cache, keyBookings, func(ctx context.Context) ([]model.Booking, error) {
		resp, err := h.api.ListMine(ctx)
		return resp.Data, err
	}, query.Enabled(signedIn(h.session)))
}

func (h *Bookings) bookingQuery(id string) *query.Query[model.Booking] {
	id = strings.TrimSpace(id)
	gate := signedIn(h.session)
	return query.NewQuery(h.cache, keyBooking(id), func(ctx context.Context) (model.Booking, error) {
		resp, err := h.api.Get(ctx, id)
		return resp.Data, err
	}, query.Enabled(func(ctx context.Context) bool { return id != "" && gate(ctx) }))
}
