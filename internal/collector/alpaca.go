package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"MineralTracker/internal/model"
)

// barsClient is the subset of the Alpaca market-data client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using Alpaca's historical bars API.
// Alpaca only serves equities and ETFs, so futures tickers fail per symbol.
type AlpacaFetcher struct {
	client barsClient
	feed   marketdata.Feed
}

// NewAlpacaFetcher creates a fetcher with the given credentials. An empty feed defaults to IEX.
func NewAlpacaFetcher(apiKey, apiSecret, baseURL, feed string) *AlpacaFetcher {
	if feed == "" {
		feed = marketdata.IEX
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
			Feed:      feed,
		}),
		feed: feed,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchDailyCloses returns the daily bar closes between start and end.
func (f *AlpacaFetcher) FetchDailyCloses(_ context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	bars, err := f.client.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Split,
		Start:      start,
		End:        end,
		Feed:       f.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars: %w", err)
	}
	points := make([]model.PricePoint, 0, len(bars))
	for _, b := range bars {
		t := b.Timestamp.UTC()
		points = append(points, model.PricePoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close: b.Close,
		})
	}
	return points, nil
}
