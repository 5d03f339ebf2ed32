package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

// retryConflicts runs fn until it succeeds, fails with anything but a
// version conflict, or has run maxAttempts times. fn must re-read every
// record it writes.
func retryConflicts(ctx context.Context, logger *slog.Logger, m *Metrics, maxAttempts int, op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, store.ErrConflict) {
			if err != nil && apperrors.CodeOf(err) == apperrors.CodeUnknown {
				return fromStore(err, "%s", op)
			}
			return err
		}
		m.conflict()
		if attempt >= maxAttempts {
			return apperrors.Wrap(apperrors.CodeConflict, op+" kept conflicting with concurrent updates", err)
		}
		logger.DebugContext(ctx, "ledger conflict, retrying", "op", op, "attempt", attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperrors.CodeOf(err)))
}
