package chart

import (
	"bytes"
	"fmt"
	"html"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"MineralTracker/internal/calculator"
	"MineralTracker/internal/model"
)

// HTMLRenderer writes an interactive go-echarts page.
type HTMLRenderer struct {
	symbols []model.Symbol
	opts    Options
}

func (r *HTMLRenderer) Mode() Mode { return ModeHTML }

// Render lays out the populated cells in grid order and writes the HTML page.
func (r *HTMLRenderer) Render(set model.SeriesSet, ref *time.Time) (Artifact, error) {
	grid := Layout(r.symbols, set)
	cells := grid.Populated()
	if len(cells) == 0 {
		return Artifact{}, fmt.Errorf("render %s: %w", set.Period, model.ErrNoData)
	}

	banner := BannerTitle(r.opts.Title, set.Period)
	page := components.NewPage()
	page.PageTitle = banner
	page.SetLayout(components.PageFlexLayout)
	for _, c := range r.slots(grid, set.Period) {
		page.AddCharts(c)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return Artifact{}, fmt.Errorf("render %s page: %w", set.Period, err)
	}
	doc := withBanner(buf.String(), banner, r.opts.WidthPx/GridCols)

	path, err := writeFile(r.opts.Dir, FileName(ModeHTML, set.Period, ref), func(f *os.File) error {
		_, err := f.WriteString(doc)
		return err
	})
	if err != nil {
		return Artifact{}, err
	}
	log.Printf("[INFO] %s chart saved to %s (%d cells)", set.Period, path, len(cells))
	return Artifact{Mode: ModeHTML, Path: path, Cells: len(cells)}, nil
}

// slots returns one chart per grid slot in row-major order. Empty slots get a
// blank chart of the same size so every symbol keeps its declared position.
func (r *HTMLRenderer) slots(grid Grid, period model.Period) []*charts.Line {
	out := make([]*charts.Line, 0, GridRows*GridCols)
	for row := range grid {
		for _, cell := range grid[row] {
			if cell.Series == nil {
				out = append(out, r.placeholder())
				continue
			}
			out = append(out, r.cellChart(cell, period))
		}
	}
	return out
}

func (r *HTMLRenderer) initOpts() opts.Initialization {
	return opts.Initialization{
		Width:  fmt.Sprintf("%dpx", r.opts.WidthPx/GridCols),
		Height: fmt.Sprintf("%dpx", r.opts.HeightPx/GridRows),
	}
}

func (r *HTMLRenderer) placeholder() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithInitializationOpts(r.initOpts()))
	return line
}

func (r *HTMLRenderer) cellChart(cell Cell, period model.Period) *charts.Line {
	ps := cell.Series
	unit := model.UnitOf(cell.Symbol)
	dates := make([]string, len(ps.Points))
	items := make([]opts.LineData, len(ps.Points))
	for i, pt := range ps.Points {
		dates[i] = pt.Date.Format("2006-01-02")
		items[i] = opts.LineData{Value: pt.Close}
	}

	yAxis := opts.YAxis{
		Name:      AxisLabel(cell.Symbol),
		AxisLabel: &opts.AxisLabel{Formatter: string(opts.FuncOpts(tickFormatterJS(r.opts.ThousandsThreshold)))},
	}
	if min, max, err := calculator.PaddedBounds(ps.Closes(), r.opts.YPadding); err == nil {
		yAxis.Min = round2(min)
		yAxis.Max = round2(max)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts()),
		charts.WithTitleOpts(opts.Title{Title: CellTitle(cell.Symbol, period)}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger:   "axis",
			Formatter: opts.FuncOpts(tooltipJS(unit)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Date",
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
		charts.WithYAxisOpts(yAxis),
	)
	line.SetXAxis(dates).AddSeries(cell.Symbol.Name, items,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

// tickFormatterJS mirrors PriceFormatter in the browser.
func tickFormatterJS(threshold float64) string {
	return fmt.Sprintf(`function (v) {
	if (v >= %g) { return '$' + (v / 1000).toLocaleString('en-US', {minimumFractionDigits: 1, maximumFractionDigits: 1}) + 'K'; }
	return '$' + Math.round(v).toLocaleString('en-US');
}`, threshold)
}

func tooltipJS(unit model.Unit) string {
	return fmt.Sprintf(`function (params) {
	var p = params[0];
	return 'Date: ' + p.axisValue + '<br/>Price: $' + Number(p.value).toFixed(2) + ' %s';
}`, unit)
}

// withBanner inserts the shared title at the top of the page body and pins the
// chart boxes to a three-column grid of cellWidth pixels.
func withBanner(doc, title string, cellWidth int) string {
	head := fmt.Sprintf(`<style>div.box{display:grid !important;grid-template-columns:repeat(%d, %dpx);justify-content:center}</style>
<h1 style="text-align:center;font-family:Arial,sans-serif">%s</h1>`, GridCols, cellWidth, html.EscapeString(title))
	if i := strings.Index(doc, "<body>"); i >= 0 {
		i += len("<body>")
		return doc[:i] + "\n" + head + doc[i:]
	}
	return head + "\n" + doc
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
