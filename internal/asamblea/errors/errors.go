package errors

import (
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain is the error domain attached to gRPC error details.
const Domain = "github.com/BrandonDHaskell/Asamblea"

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message, safe to return to clients
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrNotFound         = New(CodeNotFound, "not found")
	ErrInvalidOperation = New(CodeInvalidOperation, "invalid operation")
	ErrInvalidArgument  = New(CodeInvalidArgument, "invalid argument")
	ErrConflict         = New(CodeConflict, "conflict")
)

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MessageOf returns the client-facing message for err. Errors without a
// domain code get a generic message so internals do not leak.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// ToGRPCStatus converts the error to a gRPC status carrying an ErrorInfo
// detail with the domain code.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	st, err := status.New(grpcCode, e.Message).WithDetails(&errdetails.ErrorInfo{
		Reason: string(e.Code),
		Domain: Domain,
	})
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}
