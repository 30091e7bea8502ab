package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

type requestIDKey struct{}

// ContextWithLogger 把 logger 放入 context
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// ContextWithRequestID 把请求 ID 放入 context，并让后续 Ctx(ctx) 的日志带上 request_id 字段
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	l := LoggerFromContext(ctx).With().Str("request_id", id).Logger()
	return ContextWithLogger(ctx, l)
}

// RequestIDFromContext 读取请求 ID，没有时返回空串
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFromContext 返回 context 中的 logger，没有时返回全局 logger
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return l
		}
	}
	return Logger()
}

// Ctx 返回 context 关联的 logger 指针，便于链式调用：logging.Ctx(ctx).Info().Msg("...")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := LoggerFromContext(ctx)
	return &l
}
