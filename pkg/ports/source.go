package ports

import (
	"context"

	"github.com/aretw0/botflow/pkg/domain"
)

// UpdateSource produces inbound updates for a receive loop.
// The returned channel is closed when the source is exhausted or ctx is canceled.
type UpdateSource interface {
	Updates(ctx context.Context) (<-chan domain.Update, error)
}
