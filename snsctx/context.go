// Package snsctx carries per-call options for bus drivers through a context.
package snsctx

import "context"

type verboseKey struct{}

// IsVerbose reports whether transfers made with ctx should be dumped at debug level.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseKey{}).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, verboseKey{}, value)
}
