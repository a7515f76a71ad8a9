package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"MineralTracker/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Points map[string][]model.PricePoint // keyed by ticker
	Errors map[string]error              // keyed by ticker
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, ticker string, _, _ time.Time) ([]model.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ticker)
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	return m.Points[ticker], nil
}

// GenerateMockPoints builds n consecutive daily closes ending at end.
func GenerateMockPoints(basePrice float64, n int, end time.Time) []model.PricePoint {
	points := make([]model.PricePoint, n)
	for i := 0; i < n; i++ {
		points[i] = model.PricePoint{
			Date:  end.AddDate(0, 0, -(n - 1 - i)),
			Close: basePrice * (1 + float64(i-n/2)*0.001),
		}
	}
	return points
}

// Result is one fetch pass: retained series in declaration order plus per-symbol failures.
type Result struct {
	Series   []model.PriceSeries
	Failures []model.FetchFailure
}

// Collector fetches the configured symbol table through a Fetcher.
type Collector struct {
	Fetcher Fetcher
	Symbols model.SymbolTable
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbols []model.Symbol) *Collector {
	return &Collector{Fetcher: fetcher, Symbols: symbols}
}

// Collect fetches every symbol between start and end. A failing symbol is logged
// and skipped; when nothing could be retained the partial result is returned with
// an error wrapping model.ErrNoData.
func (c *Collector) Collect(ctx context.Context, start, end time.Time) (*Result, error) {
	res := &Result{}
	for _, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if sym.Ticker == "" {
			continue
		}
		points, err := c.Fetcher.FetchDailyCloses(ctx, sym.Ticker, start, end)
		if err != nil {
			log.Printf("[WARN] %s (%s) fetch failed: %v", sym.Name, sym.Ticker, err)
			res.Failures = append(res.Failures, model.FetchFailure{Symbol: sym.Name, Err: err})
			continue
		}
		if len(points) == 0 {
			log.Printf("[WARN] %s (%s) returned no data", sym.Name, sym.Ticker)
			continue
		}
		log.Printf("[INFO] %s fetched %d points", sym.Name, len(points))
		res.Series = append(res.Series, model.PriceSeries{Symbol: sym, Points: points})
	}

	if len(res.Series) == 0 {
		return res, fmt.Errorf("%s %s..%s: %w", c.Fetcher.Name(),
			start.Format("2006-01-02"), end.Format("2006-01-02"), model.ErrNoData)
	}
	return res, nil
}
