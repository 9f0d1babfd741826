package ports

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
)

// ErrorReporter receives errors that escaped a dispatch.
// The router itself never recovers from handler failures; the receive loop hands them here.
type ErrorReporter interface {
	Report(ctx context.Context, update domain.Update, err error)
}

// ErrorReporterFunc adapts a function to the ErrorReporter interface.
type ErrorReporterFunc func(ctx context.Context, update domain.Update, err error)

// Report calls f.
func (f ErrorReporterFunc) Report(ctx context.Context, update domain.Update, err error) {
	f(ctx, update, err)
}
