package api

import (
	"errors"

	"github.com/dccc/clubhouse/internal/errs"
)

// Application error codes, in the JSON-RPC server error range
const (
	ErrCodeTransient   = -32000
	ErrCodePermission  = -32001
	ErrCodeNotFound    = -32004
	ErrCodeConflict    = -32009
	ErrCodeRateLimited = -32029
)

// ErrRateLimited is returned when a member exceeds the mutation rate
var ErrRateLimited = errors.New("too many requests")

// toRPCError maps an operation error onto a JSON-RPC error object. Transient
// causes are not echoed to the caller.
func toRPCError(err error) *JSONRPCError {
	if errors.Is(err, ErrRateLimited) {
		return &JSONRPCError{Code: ErrCodeRateLimited, Message: "Rate limited", Data: err.Error()}
	}

	var e *errs.Error
	message := "temporarily unavailable, try again"
	if errors.As(err, &e) && e.Kind != errs.KindTransient {
		message = e.Message
	}

	kind := errs.KindOf(err)
	code := ErrCodeTransient
	switch kind {
	case errs.KindValidation:
		code = ErrInvalidParams
	case errs.KindPermission:
		code = ErrCodePermission
	case errs.KindNotFound:
		code = ErrCodeNotFound
	case errs.KindConflict:
		code = ErrCodeConflict
	}
	return &JSONRPCError{Code: code, Message: kind.String(), Data: message}
}
