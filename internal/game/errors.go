package game

import "errors"

// Validation errors are typed so the transport layer can hand clients a
// stable kind tag. A failed action never leaves partial state behind.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientCargo    = errors.New("insufficient cargo")
	ErrInsufficientFuel     = errors.New("insufficient fuel")
	ErrCapacityExceeded     = errors.New("cargo capacity exceeded")
	ErrFuelCapacityExceeded = errors.New("fuel tank capacity exceeded")
	ErrSameLocation         = errors.New("already at destination")
	ErrRoomFull             = errors.New("room is full")
	ErrDuplicateName        = errors.New("player name already taken in this room")
	ErrPersistence          = errors.New("persistence failure")
	ErrEmptyMessage         = errors.New("message content cannot be empty")
	ErrMessageTooLong       = errors.New("message content cannot exceed 500 characters")
	ErrNotAtAirport         = errors.New("must be at the airport to post")
	ErrRateLimited          = errors.New("posting too fast")
)

// Kind maps an error to its stable wire tag.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientCargo):
		return "insufficient_cargo"
	case errors.Is(err, ErrInsufficientFuel):
		return "insufficient_fuel"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrFuelCapacityExceeded):
		return "fuel_capacity_exceeded"
	case errors.Is(err, ErrSameLocation):
		return "same_location"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_player_name"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		return "invalid_message"
	case errors.Is(err, ErrNotAtAirport):
		return "not_at_airport"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
