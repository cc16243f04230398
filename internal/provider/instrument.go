package provider

import (
	"context"
	"time"

	"github.com/stratlab/stratlab/internal/core"
)

// FetchRecorder receives the outcome of every provider request.
type FetchRecorder interface {
	RecordProviderRequest(status string, bars int)
}

// Instrumented decorates a BarSeriesProvider with fetch accounting.
type Instrumented struct {
	next     BarSeriesProvider
	recorder FetchRecorder
}

// NewInstrumented wraps next so every GetBars call is recorded.
func NewInstrumented(next BarSeriesProvider, recorder FetchRecorder) *Instrumented {
	return &Instrumented{next: next, recorder: recorder}
}

func (p *Instrumented) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	bars, err := p.next.GetBars(ctx, symbol, start, end)
	if err != nil {
		p.recorder.RecordProviderRequest("error", 0)
		return nil, err
	}
	p.recorder.RecordProviderRequest("success", len(bars))
	return bars, nil
}
