package chart

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"MineralTracker/internal/calculator"
	"MineralTracker/internal/model"
)

// PNGRenderer rasterizes the grid with gonum/plot.
type PNGRenderer struct {
	symbols []model.Symbol
	opts    Options
}

func (r *PNGRenderer) Mode() Mode { return ModePNG }

// priceTicks keeps the default tick positions and relabels them as currency.
type priceTicks struct {
	format PriceFormatter
}

func (t priceTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = t.format.Format(ticks[i].Value)
		}
	}
	return ticks
}

// Render draws the populated cells and writes the PNG.
func (r *PNGRenderer) Render(set model.SeriesSet, ref *time.Time) (Artifact, error) {
	grid := Layout(r.symbols, set)
	cells := grid.Populated()
	if len(cells) == 0 {
		return Artifact{}, fmt.Errorf("render %s: %w", set.Period, model.ErrNoData)
	}

	plots := make([][]*plot.Plot, GridRows)
	for row := range plots {
		plots[row] = make([]*plot.Plot, GridCols)
	}
	for i, cell := range cells {
		p, err := r.cellPlot(cell, set.Period, i)
		if err != nil {
			log.Printf("[WARN] %s: skip cell: %v", cell.Symbol.Name, err)
			continue
		}
		plots[cell.Row][cell.Col] = p
	}

	dpi := float64(r.opts.DPI)
	w := vg.Length(float64(r.opts.WidthPx)/dpi) * vg.Inch
	h := vg.Length(float64(r.opts.HeightPx)/dpi) * vg.Inch
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.opts.DPI))
	dc := draw.New(img)

	banner := h / 15
	bannerStyle := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(20)),
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
		Handler: plot.DefaultTextHandler,
	}
	dc.FillText(bannerStyle, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - banner/2}, BannerTitle(r.opts.Title, set.Period))

	body := draw.Crop(dc, 0, 0, 0, -banner)
	tiles := draw.Tiles{
		Rows:      GridRows,
		Cols:      GridCols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, body)
	drawn := 0
	for row := range plots {
		for col, p := range plots[row] {
			if p == nil {
				continue
			}
			p.Draw(canvases[row][col])
			drawn++
		}
	}

	path, err := writeFile(r.opts.Dir, FileName(ModePNG, set.Period, ref), func(f *os.File) error {
		png := vgimg.PngCanvas{Canvas: img}
		_, err := png.WriteTo(f)
		return err
	})
	if err != nil {
		return Artifact{}, err
	}
	log.Printf("[INFO] %s chart saved to %s (%d cells)", set.Period, path, drawn)
	return Artifact{Mode: ModePNG, Path: path, Cells: drawn}, nil
}

func (r *PNGRenderer) cellPlot(cell Cell, period model.Period, idx int) (*plot.Plot, error) {
	ps := cell.Series
	pts := make(plotter.XYs, len(ps.Points))
	for i, pt := range ps.Points {
		pts[i].X = float64(pt.Date.Unix())
		pts[i].Y = pt.Close
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = plotutil.Color(idx)

	p := plot.New()
	p.Title.Text = CellTitle(cell.Symbol, period)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = AxisLabel(cell.Symbol)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = priceTicks{format: PriceFormatter{Threshold: r.opts.ThousandsThreshold}}

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 0xcc}
	grid.Horizontal.Color = color.Gray{Y: 0xcc}
	p.Add(grid, line)
	p.Legend.Add(cell.Symbol.Name, line)
	p.Legend.Top = true
	p.Legend.Left = true

	if min, max, err := calculator.PaddedBounds(ps.Closes(), r.opts.YPadding); err == nil {
		p.Y.Min, p.Y.Max = min, max
	}
	return p, nil
}
