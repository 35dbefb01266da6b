package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrNotOwner         = fmt.Errorf("only the collection owner can do this")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrCollectionNotFound = fmt.Errorf("collection not found")
	ErrPlaceNotFound      = fmt.Errorf("place not found")
	ErrItemNotFound       = fmt.Errorf("item not found")

	// Interaction errors
	ErrCooldown          = fmt.Errorf("action is cooling down")
	ErrInFlight          = fmt.Errorf("request already in flight")
	ErrDuplicateInFlight = fmt.Errorf("identical request already in flight")
	ErrClosed            = fmt.Errorf("view closed")
	ErrQueryTooShort     = fmt.Errorf("search query too short")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
