package model

import "time"

type Route struct {
	ID          string    `json:"id"`
	Name        string    `json:"route_name"`
	Description string    `json:"description"`
	BaseFare    Amount    `json:"base_fare"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type Stop struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	LandmarkDescription string  `json:"landmark_description,omitempty"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	StopOrder           int     `json:"stop_order,omitempty"`
}

type RouteDetails struct {
	Route Route  `json:"route"`
	Stops []Stop `json:"stops"`
}

type RouteList struct {
	Routes     []Route     `json:"routes"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type RouteFilter struct {
	Origin      string
	Destination string
	Limit       int
	Offset      int
}
