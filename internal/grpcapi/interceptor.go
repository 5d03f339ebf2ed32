package grpcapi

import (
	"context"
	stderrors "errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
)

// errorInterceptor turns domain errors into gRPC statuses carrying the
// domain code. Anything else surfaces as Internal without its message.
func errorInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		var appErr *apperrors.Error
		if stderrors.As(err, &appErr) && appErr.Code != apperrors.CodeUnknown {
			return nil, appErr.ToGRPCStatus()
		}
		logger.ErrorContext(ctx, "unhandled gRPC error", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
}
