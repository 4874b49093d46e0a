package collector

import (
	"context"
	"time"

	"PortfolioAnalysis/internal/model"
)

// Fetcher defines the interface for fetching daily closes.
// start and end are calendar days, both inclusive.
type Fetcher interface {
	FetchCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceObservation, error)
	Name() string
}
