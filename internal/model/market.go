package model

import "time"

// Unit tags the price denomination of a symbol.
type Unit string

const (
	UnitOunce Unit = "USD/oz"
	UnitPound Unit = "USD/lb"
	UnitNone  Unit = "USD"
)

// Symbol maps a display name to a provider ticker.
type Symbol struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
	Unit   Unit   `yaml:"unit"`
}

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds the closes fetched for one symbol, oldest first.
type PriceSeries struct {
	Symbol Symbol
	Points []PricePoint
}

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// SeriesSet is the outcome of one fetch pass: series in declaration order.
type SeriesSet struct {
	Period Period
	Series []PriceSeries
}

// Get looks up a series by display name.
func (s SeriesSet) Get(name string) (PriceSeries, bool) {
	for _, ps := range s.Series {
		if ps.Symbol.Name == name {
			return ps, true
		}
	}
	return PriceSeries{}, false
}

// Len returns the number of series with data.
func (s SeriesSet) Len() int { return len(s.Series) }

// ChartRequest describes one unit of batch work. A nil Reference means "now".
type ChartRequest struct {
	Period    Period
	Reference *time.Time
}

// DateTag returns the filename tag of the request's reference date.
func (r ChartRequest) DateTag() string { return DateTag(r.Reference) }

// DateTag formats a reference date as YYYYMMDD, or "current" when nil.
func DateTag(ref *time.Time) string {
	if ref == nil {
		return "current"
	}
	return ref.Format("20060102")
}

// DateLabel formats a reference date as YYYY-MM-DD, or "current" when nil.
func DateLabel(ref *time.Time) string {
	if ref == nil {
		return "current"
	}
	return ref.Format("2006-01-02")
}
