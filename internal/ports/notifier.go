package ports

import (
	"context"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// Notifier presents engine state to the operator. The console implementation
// prints formatted tables; others could push to chat or dashboards.
type Notifier interface {
	// NotifyOpportunities shows the current ranked opportunity set.
	NotifyOpportunities(ctx context.Context, opps []domain.Opportunity) error

	// NotifyPositions shows open positions with live P&L.
	NotifyPositions(ctx context.Context, positions []domain.Position) error
}
