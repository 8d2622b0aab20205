package douyin

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("douyin: unauthorized")
	ErrForbidden         = errors.New("douyin: forbidden")
	ErrNotFound          = errors.New("douyin: not found")
	ErrRateLimited       = errors.New("douyin: rate limited")
	ErrServer            = errors.New("douyin: server error")
	ErrUnexpectedStatus  = errors.New("douyin: unexpected http status")
	ErrTransport         = errors.New("douyin: transport failure")
	ErrInvalidResponse   = errors.New("douyin: invalid response")
	ErrInvalidArgument   = errors.New("douyin: invalid argument")
	ErrNotAuthenticated  = errors.New("douyin: login required")
	ErrActionInFlight    = errors.New("douyin: action already in flight")
	ErrUnsupportedFormat = errors.New("douyin: unsupported video format")
)

// StatusError is an application-level failure: the HTTP exchange succeeded but
// the server replied with a non-zero status_code.
type StatusError struct {
	Code int32
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("douyin: status %d", e.Code)
	}
	return fmt.Sprintf("douyin: status %d: %s", e.Code, e.Msg)
}

// IsStatus reports whether err carries a server-reported status and returns it.
func IsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
