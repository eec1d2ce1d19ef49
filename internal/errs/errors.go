package errs

import "errors"

var (
	// ErrInvalidEndpoint indicates a registration with a missing or malformed endpoint URI.
	ErrInvalidEndpoint = errors.New("subscription must have an endpoint")
	// ErrEndpointNotFound indicates that no push endpoint is registered for the user.
	ErrEndpointNotFound = errors.New("no push endpoint registered for user")
	// ErrNotFoundOrNotOwned indicates that a notification does not exist or belongs to another user.
	ErrNotFoundOrNotOwned = errors.New("notification not found or not owned by user")
	// ErrEndpointGone is the transport's permanent-failure signal: the endpoint
	// is dead and must never be used again.
	ErrEndpointGone = errors.New("push endpoint gone")
	// ErrInvalidStatus indicates an unknown presence status value.
	ErrInvalidStatus = errors.New("invalid presence status")
)
