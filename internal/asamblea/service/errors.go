package service

import (
	"errors"
	"fmt"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

// fromStore turns store sentinels into coded errors. Anything else is a
// repository failure and passes through wrapped.
func fromStore(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, msg+" not found", err)
	case errors.Is(err, store.ErrConflict):
		return apperrors.Wrap(apperrors.CodeConflict, msg+" was modified concurrently", err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func notFound(format string, args ...any) error {
	return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf(format, args...))
}

func invalidOperation(format string, args ...any) error {
	return apperrors.New(apperrors.CodeInvalidOperation, fmt.Sprintf(format, args...))
}

func invalidArgument(format string, args ...any) error {
	return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return apperrors.New(apperrors.CodeConflict, fmt.Sprintf(format, args...))
}
