// Package service implements ServicePrimitive: a correlated
// request/reply channel built on a pair of rtps topics. Client and
// Server are generic over the request and response payload types,
// a single capability record rather than a deep inheritance hierarchy.
package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// CallServiceError is returned by AsyncCallService when a request/reply
// exchange could not be completed, subsuming both transport failures
// and caller-chosen timeouts.
type CallServiceError struct {
	cause error
}

func (e *CallServiceError) Error() string {
	return fmt.Sprintf("service: call failed: %v", e.cause)
}

func (e *CallServiceError) Unwrap() error { return e.cause }

func wrapCallError(cause error, context string) *CallServiceError {
	return &CallServiceError{cause: errors.Wrap(cause, context)}
}
