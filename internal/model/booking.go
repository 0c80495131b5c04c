package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMpesa       PaymentMethod = "mpesa"
	PaymentAirtelMoney PaymentMethod = "airtel_money"
	PaymentCash        PaymentMethod = "cash"
	PaymentBusPass     PaymentMethod = "bus_pass"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMpesa, PaymentAirtelMoney, PaymentCash, PaymentBusPass:
		return true
	default:
		return false
	}
}

type Seats struct {
	SeatNumbers []string `json:"seat_numbers"`
	Count       int      `json:"count"`
}

func NewSeats(numbers ...string) Seats {
	copied := make([]string, len(numbers))
	copy(copied, numbers)
	return Seats{SeatNumbers: copied, Count: len(copied)}
}

func (s Seats) Valid() bool {
	return s.Count == len(s.SeatNumbers)
}

type Booking struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	BusID     string        `json:"bus_id"`
	RouteID   string        `json:"route_id"`
	Seats     Seats         `json:"seats"`
	Fare      Amount        `json:"fare"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at,omitzero"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
	BoardedAt *time.Time    `json:"boarded_at,omitempty"`
}

// Cancellable mirrors the server rule and is only used to disable actions.
func (b Booking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

type CreateBookingRequest struct {
	BusID         string        `json:"bus_id"`
	Seats         Seats         `json:"seats"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// QuoteFare is the displayed fare for a seat selection.
func QuoteFare(baseFare Amount, seats Seats) Amount {
	return baseFare * Amount(seats.Count)
}
