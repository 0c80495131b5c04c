package model

import "time"

type Bus struct {
	ID             string `json:"id"`
	PlateNumber    string `json:"plate_number"`
	Capacity       int    `json:"capacity"`
	AvailableSeats int    `json:"available_seats"`
}

type Driver struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RouteSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Schedule struct {
	ID            string        `json:"id"`
	RouteID       string        `json:"route_id,omitempty"`
	DepartureTime time.Time     `json:"departure_time"`
	Bus           Bus           `json:"bus"`
	Driver        *Driver       `json:"driver,omitempty"`
	Route         *RouteSummary `json:"route,omitempty"`
}

type ScheduleFilter struct {
	RouteID string
	// Date selects a service day; only the calendar date is sent.
	Date time.Time
}
