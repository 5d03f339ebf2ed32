// Package errors provides the coded domain errors shared by the ledger
// services and their transports.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound: the assembly or record does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidOperation: a request that is well formed but not allowed
	// in the current state, e.g. a transfer onto the holder itself.
	CodeInvalidOperation Code = "INVALID_OPERATION"
	// CodeInvalidArgument: missing or malformed input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeConflict: concurrent writers kept winning, or a unique value is
	// already taken.
	CodeConflict Code = "CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidOperation:
		return codes.FailedPrecondition
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeConflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidOperation:
		return http.StatusUnprocessableEntity
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
