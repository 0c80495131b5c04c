package api

import (
	"context"
	"net/http"

	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
)

type Bookings struct {
	c Doer
}

// Create sends the request as given; keeping seats.count in line with the
// seat numbers is up to the caller.
func (b *Bookings) Create(ctx context.Context, req model.CreateBookingRequest) (Response[model.Booking], error) {
	return call[model.Booking](ctx, b.c, &httpclient.Request{Method: http.MethodPost, Path: "/bookings", Body: req})
}

func (b *Bookings) Get(ctx context.Context, bookingID string) (Response[model.Booking], error) {
	return call[model.Booking](ctx, b.c, &httpclient.Request{Method: http.MethodGet, Path: "/bookings/" + segment(bookingID)})
}

// Cancel does not look at the booking status; the backend decides.
func (b *Bookings) Cancel(ctx context.Context, bookingID string) (Response[model.Message], error) {
	return call[model.Message](ctx, b.c, &httpclient.Request{Method: http.MethodPost, Path: "/bookings/" + segment(bookingID) + "/cancel"})
}

func (b *Bookings) ListMine(ctx context.Context) (Response[[]model.Booking], error) {
	return call[[]model.Booking](ctx, b.c, &httpclient.Request{Method: http.MethodGet, Path: "/me/bookings"})
}
