// Package provider supplies historical bar series to the engine.
package provider

import (
	"context"
	"time"

	"github.com/stratlab/stratlab/internal/core"
)

// BarSeriesProvider defines the interface for fetching historical OHLCV bars.
// Implementations return bars ordered by strictly increasing date, trading
// days only (weekends excluded).
type BarSeriesProvider interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}
