package collector

import (
	"context"
	"time"

	"MineralTracker/internal/model"
)

// Fetcher defines the interface for fetching daily closes from a market-data provider.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error)
	Name() string
}
