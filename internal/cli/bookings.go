package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zurura-client/internal/model"
)

func (c *cli) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Create and manage your bookings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your bookings, newest first",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			bookings, err := c.app.Hooks.Bookings.List(ctx)
			if err != nil {
				return err
			}
			return c.render(bookings, func() table { return bookingTable(bookings...) })
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <booking-id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			booking, err := c.app.Hooks.Bookings.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return c.render(booking, func() table { return bookingTable(booking) })
		}),
	})

	var (
		busID   string
		seats   []string
		payment string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Book seats on a bus",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			booking, err := c.app.Hooks.Bookings.Create(ctx, model.CreateBookingRequest{
				BusID:         busID,
				Seats:         model.NewSeats(seats...),
				PaymentMethod: model.PaymentMethod(strings.ToLower(payment)),
			})
			if err != nil {
				return err
			}
			return c.render(booking, func() table { return bookingTable(booking) })
		}),
	}
	create.Flags().StringVar(&busID, "bus", "", "Bus id (see the schedules command)")
	create.Flags().StringSliceVar(&seats, "seats", nil, "Seat numbers, comma separated")
	create.Flags().StringVar(&payment, "payment", string(model.PaymentMpesa), "Payment method (mpesa, airtel_money, cash, bus_pass)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a pending or confirmed booking",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			msg, err := c.app.Hooks.Bookings.Cancel(ctx, args[0])
			if err != nil {
				return err
			}
			return c.render(msg, func() table { return table{footer: orDash(msg.Message)} })
		}),
	})

	var (
		routeID    string
		quoteSeats []string
	)
	quote := &cobra.Command{
		Use:   "quote",
		Short: "Show the fare for a seat selection",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			selection := model.NewSeats(quoteSeats...)
			fare, err := c.app.Hooks.Bookings.Quote(ctx, routeID, selection)
			if err != nil {
				return err
			}
			out := map[string]any{"route_id": routeID, "seats": selection.Count, "fare": fare}
			return c.render(out, func() table {
				return fields("ROUTE", routeID, "SEATS", strconv.Itoa(selection.Count), "FARE", fare.String())
			})
		}),
	}
	quote.Flags().StringVar(&routeID, "route", "", "Route id")
	quote.Flags().StringSliceVar(&quoteSeats, "seats", nil, "Seat numbers, comma separated")
	cmd.AddCommand(quote)

	return cmd
}

func bookingTable(bookings ...model.Booking) table {
	t := table{headers: []string{"ID", "STATUS", "SEATS", "FARE", "CREATED"}}
	for _, b := range bookings {
		created := "-"
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		t.rows = append(t.rows, []string{
			b.ID,
			string(b.Status),
			strings.Join(b.Seats.SeatNumbers, ","),
			b.Fare.String(),
			created,
		})
	}
	if len(bookings) == 0 {
		t.footer = "No bookings yet."
	}
	return t
}
