// Package domainerrors defines the coded error type shared by every layer.
// Services attach a Code to each failure; transports map codes to HTTP
// statuses and wire bodies. Comparisons go through HasCode (or errors.Is
// against a constructed error), never through string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error. The constant value is the wire representation.
type Code string

const (
	// Raffle domain codes.
	CodeBadPayment            Code = "bad_payment"
	CodeDuplicateEntrant      Code = "duplicate_entrant"
	CodeNotOccupant           Code = "not_occupant"
	CodeAlreadyVacant         Code = "already_vacant"
	CodeNotReady              Code = "not_ready"
	CodeNoEntrants            Code = "no_entrants"
	CodeRandomnessUnavailable Code = "randomness_unavailable"
	CodeTransferFailed        Code = "transfer_failed"
	CodeMintFailed            Code = "mint_failed"

	// Generic codes.
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error. Two Errors are equal under errors.Is when
// their codes match; messages are for humans and logs only.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New returns an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code, regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err's chain, defaulting to CodeInternal for
// uncoded errors so transports never leak raw failure detail.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

var httpStatus = map[Code]int{
	CodeBadPayment:            http.StatusBadRequest,
	CodeDuplicateEntrant:      http.StatusConflict,
	CodeNotOccupant:           http.StatusForbidden,
	CodeAlreadyVacant:         http.StatusConflict,
	CodeNotReady:              http.StatusConflict,
	CodeNoEntrants:            http.StatusConflict,
	CodeRandomnessUnavailable: http.StatusServiceUnavailable,
	CodeTransferFailed:        http.StatusBadGateway,
	CodeMintFailed:            http.StatusBadGateway,
	CodeBadRequest:            http.StatusBadRequest,
	CodeInvalidInput:          http.StatusBadRequest,
	CodeUnauthorized:          http.StatusUnauthorized,
	CodeForbidden:             http.StatusForbidden,
	CodeNotFound:              http.StatusNotFound,
	CodeConflict:              http.StatusConflict,
	CodeRateLimited:           http.StatusTooManyRequests,
	CodeInternal:              http.StatusInternalServerError,
	CodeInvariantViolation:    http.StatusInternalServerError,
}

// ToHTTPStatus maps a code to its HTTP status. Unknown codes map to 500.
func ToHTTPStatus(code Code) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
