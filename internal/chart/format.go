package chart

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"MineralTracker/internal/model"
)

// DefaultThousandsThreshold is the value at which tick labels switch to the K suffix.
const DefaultThousandsThreshold = 1000

// DefaultYPadding is the fraction of the data span added above and below each series.
const DefaultYPadding = 0.05

// PriceFormatter renders y-axis tick labels as currency.
type PriceFormatter struct {
	Threshold float64
}

// Format returns "$2.5K" at or above the threshold and "$950" below it.
func (f PriceFormatter) Format(v float64) string {
	th := f.Threshold
	if th <= 0 {
		th = DefaultThousandsThreshold
	}
	if v >= th {
		tenths := int64(math.Round(v / 100))
		return fmt.Sprintf("$%s.%dK", humanize.Comma(tenths/10), tenths%10)
	}
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// AxisLabel returns the y-axis caption for a symbol.
func AxisLabel(sym model.Symbol) string {
	return fmt.Sprintf("Price (%s)", model.UnitOf(sym))
}

// CellTitle returns the per-cell title.
func CellTitle(sym model.Symbol, period model.Period) string {
	return fmt.Sprintf("%s Price (%s)", sym.Name, period)
}

// BannerTitle returns the shared title above the grid.
func BannerTitle(title string, period model.Period) string {
	return fmt.Sprintf("%s (%s)", title, period)
}
