package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrGroupRequired = errors.New("group is required")
	ErrGroupNotFound = errors.New("group not found")
	ErrNoRecords     = errors.New("no account records supplied")
)

// APIError is an application-layer failure: the server answered HTTP 200 but
// the embedded OCS status code was outside the accepted set. Message carries
// the server's meta/message text, or the raw envelope when no message was
// present.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ocs status %d", e.Code)
	}
	return fmt.Sprintf("ocs status %d: %s", e.Code, e.Message)
}

// TransportError is an HTTP-layer failure: any response status other than
// 200, with the raw body kept for diagnostics.
type TransportError struct {
	StatusCode int
	Body       []byte
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}
