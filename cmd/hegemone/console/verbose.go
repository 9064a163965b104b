package console

import (
	"context"

	"github.com/mklimuk/hegemone/snsctx"
)

// SetVerbose marks ctx so that bus transfers are dumped at debug level.
func SetVerbose(parent context.Context, value bool) context.Context {
	return snsctx.SetVerbose(parent, value)
}

