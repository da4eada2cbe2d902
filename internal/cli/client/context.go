package client

import "context"

type contextKey int

const (
	skipAuthKey contextKey = iota
	skipIndicatorKey
)

// SkipAuth marks the calls made with ctx as anonymous: no Authorization
// header is attached even when a token is available.
func SkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

// SkipIndicator keeps the calls made with ctx out of the busy indicator
func SkipIndicator(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipIndicatorKey, true)
}

// IsSkipAuth reports whether ctx was marked with SkipAuth
func IsSkipAuth(ctx context.Context) bool {
	v, _ := ctx.Value(skipAuthKey).(bool)
	return v
}

// IsSkipIndicator reports whether ctx was marked with SkipIndicator
func IsSkipIndicator(ctx context.Context) bool {
	v, _ := ctx.Value(skipIndicatorKey).(bool)
	return v
}
