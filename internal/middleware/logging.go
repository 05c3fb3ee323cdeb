package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// slugged is implemented by every message that refers to one expense.
type slugged interface {
	GetSlug() string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call with its
// procedure, expense slug when known, duration and result code.
// Client errors are logged at Warn, everything else that fails at Error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if slug := slugOf(req, resp, err); slug != "" {
				attrs = append(attrs, "slug", slug)
			}

			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code, "error", err)
			if isClientError(code) {
				slog.Warn("RPC rejected", attrs...)
			} else {
				slog.Error("RPC failed", attrs...)
			}
			return resp, err
		}
	}
}

// slugOf prefers the request slug; creates only learn theirs from a successful response.
func slugOf(req connect.AnyRequest, resp connect.AnyResponse, err error) string {
	if m, ok := req.Any().(slugged); ok && m.GetSlug() != "" {
		return m.GetSlug()
	}
	if err == nil && resp != nil {
		if m, ok := resp.Any().(slugged); ok {
			return m.GetSlug()
		}
	}
	return ""
}

func isClientError(code connect.Code) bool {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeAlreadyExists,
		connect.CodeFailedPrecondition, connect.CodeCanceled, connect.CodeUnimplemented:
		return true
	}
	return false
}
