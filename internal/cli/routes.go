package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"zurura-client/internal/model"
)

func (c *cli) routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Find routes and their stops",
	}

	var (
		filter model.RouteFilter
		page   int
	)
	search := &cobra.Command{
		Use:   "search",
		Short: "Search routes by origin and destination",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			routes := c.app.Hooks.Routes
			list, err := routes.Search(ctx, filter)
			if err != nil {
				return err
			}
			if page > 1 {
				list, err = routes.ChangePage(ctx, (page-1)*routes.Filter().Limit)
				if err != nil {
					return err
				}
			}
			return c.render(list, func() table { return routeListTable(list) })
		}),
	}
	search.Flags().StringVar(&filter.Origin, "origin", "", "Origin contains")
	search.Flags().StringVar(&filter.Destination, "destination", "", "Destination contains")
	search.Flags().IntVar(&filter.Limit, "limit", 0, "Page size (default from ZURURA_ROUTES_PAGE_SIZE)")
	search.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.AddCommand(search)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <route-id>",
		Short: "Show a route with its stops",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, args []string) error {
			details, err := c.app.Hooks.Routes.Details(ctx, args[0])
			if err != nil {
				return err
			}
			return c.render(details, func() table { return routeDetailsTable(details) })
		}),
	})

	return cmd
}

func (c *cli) schedulesCmd() *cobra.Command {
	var (
		routeID string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List departures, optionally for one route and day",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			filter := model.ScheduleFilter{RouteID: routeID}
			if date != "" {
				day, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				filter.Date = day
			}

			schedules, err := c.app.Hooks.Schedules.List(ctx, filter)
			if err != nil {
				return err
			}
			return c.render(schedules, func() table { return scheduleTable(schedules) })
		}),
	}
	cmd.Flags().StringVar(&routeID, "route", "", "Route id")
	cmd.Flags().StringVar(&date, "date", "", "Service day (YYYY-MM-DD)")
	return cmd
}

func routeListTable(list model.RouteList) table {
	t := table{headers: []string{"ID", "NAME", "ORIGIN", "DESTINATION", "FARE"}}
	for _, r := range list.Routes {
		t.rows = append(t.rows, []string{r.ID, r.Name, r.Origin, r.Destination, r.BaseFare.String()})
	}

	if p := list.Pagination; p != nil {
		if p.Total == 0 {
			t.footer = "No routes found."
		} else {
			t.footer = fmt.Sprintf("Showing %d-%d of %d.", p.Offset+1, p.Offset+len(list.Routes), p.Total)
		}
	}
	return t
}

func routeDetailsTable(d model.RouteDetails) table {
	t := table{headers: []string{"#", "STOP", "LANDMARK", "LAT", "LNG"}}
	for i, s := range d.Stops {
		order := s.StopOrder
		if order == 0 {
			order = i + 1
		}
		t.rows = append(t.rows, []string{
			strconv.Itoa(order),
			s.Name,
			orDash(s.LandmarkDescription),
			strconv.FormatFloat(s.Latitude, 'f', 5, 64),
			strconv.FormatFloat(s.Longitude, 'f', 5, 64),
		})
	}
	t.footer = fmt.Sprintf("%s: %s -> %s, fare %s", d.Route.Name, d.Route.Origin, d.Route.Destination, d.Route.BaseFare)
	return t
}

func scheduleTable(schedules []model.Schedule) table {
	t := table{headers: []string{"ID", "DEPARTS", "BUS", "BUS ID", "SEATS LEFT"}}
	for _, s := range schedules {
		t.rows = append(t.rows, []string{
			s.ID,
			s.DepartureTime.Local().Format("2006-01-02 15:04"),
			orDash(s.Bus.PlateNumber),
			s.Bus.ID,
			strconv.Itoa(s.Bus.AvailableSeats),
		})
	}
	return t
}
