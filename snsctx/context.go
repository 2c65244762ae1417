// Package snsctx carries per-call flags through context.Context.
package snsctx

import "context"

type ctxKey int

const verboseKey ctxKey = iota

// IsVerbose reports whether bus implementations should dump raw frames.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(verboseKey).(bool)
	return ok && val
}

func SetVerbose(parent context.Context, value bool) context.Context {
	return context.WithValue(parent, verboseKey, value)
}
