package domain

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks a persistence backend failure. Storage errors
// never propagate past the owning store; callers observe absent values.
var ErrStorageUnavailable = errors.New("storage unavailable")

// NetworkError wraps a transport or payload-parse failure on an upstream
// call. A server that answers with a well-formed envelope is never a
// NetworkError, whatever the HTTP status.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is or wraps a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
