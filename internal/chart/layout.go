package chart

import (
	"log"

	"MineralTracker/internal/model"
)

const (
	GridRows = 3
	GridCols = 3
)

// Cell is one slot of the chart grid. Series is nil for an empty slot.
type Cell struct {
	Row, Col int
	Symbol   model.Symbol
	Series   *model.PriceSeries
}

// Grid is the fixed 3x3 chart layout.
type Grid [GridRows][GridCols]Cell

// Populated returns the cells holding data, row-major.
func (g *Grid) Populated() []Cell {
	var out []Cell
	for r := range g {
		for c := range g[r] {
			if g[r][c].Series != nil {
				out = append(out, g[r][c])
			}
		}
	}
	return out
}

// Layout places the i-th declared symbol at row i/3, column i%3. Symbols without
// data and trailing slots stay empty; symbols past the ninth are dropped.
func Layout(symbols []model.Symbol, set model.SeriesSet) Grid {
	var g Grid
	for r := range g {
		for c := range g[r] {
			g[r][c] = Cell{Row: r, Col: c}
		}
	}
	if len(symbols) > GridRows*GridCols {
		log.Printf("[WARN] %d symbols configured, only the first %d are charted", len(symbols), GridRows*GridCols)
		symbols = symbols[:GridRows*GridCols]
	}
	for i, sym := range symbols {
		cell := &g[i/GridCols][i%GridCols]
		cell.Symbol = sym
		if ps, ok := set.Get(sym.Name); ok && len(ps.Points) > 0 {
			ps := ps
			cell.Series = &ps
		}
	}
	return g
}
