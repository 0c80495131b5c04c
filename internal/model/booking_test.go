package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSeatsKeepsCountInSync(t *testing.T) {
	seats := NewSeats("A1", "A2")

	assert.Equal(t, 2, seats.Count)
	assert.Equal(t, []string{"A1", "A2"}, seats.SeatNumbers)
	assert.True(t, seats.Valid())

	seats.Count = 3
	assert.False(t, seats.Valid())
}

func TestQuoteFare(t *testing.T) {
	assert.Equal(t, Amount(140), QuoteFare(70, NewSeats("A1", "A2")))
	assert.Equal(t, Amount(0), QuoteFare(70, NewSeats()))
}

func TestBookingCancellable(t *testing.T) {
	tests := map[BookingStatus]bool{
		BookingPending:   true,
		BookingConfirmed: true,
		BookingCancelled: false,
		BookingCompleted: false,
	}

	for status, want := range tests {
		assert.Equal(t, want, Booking{Status: status}.Cancellable(), string(status))
	}
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentMpesa.Valid())
	assert.True(t, PaymentBusPass.Valid())
	assert.False(t, PaymentMethod("card").Valid())
}
