package model

import "errors"

var (
	// Input errors, returned before anything goes over the wire
	ErrMissingID         = errors.New("identifier is required")
	ErrInvalidSeats      = errors.New("seat count must match the selected seat numbers")
	ErrNoSeats           = errors.New("at least one seat must be selected")
	ErrInvalidPayment    = errors.New("unsupported payment method")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrMissingCredential = errors.New("email and password are required")

	// Session errors
	ErrAuthInProgress   = errors.New("authentication already in progress")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRoleNotAllowed   = errors.New("not available for this account role")
)
