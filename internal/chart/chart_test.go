package chart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"MineralTracker/internal/model"
)

var testSymbols = []model.Symbol{
	{Name: "Copper", Ticker: "HG=F", Unit: model.UnitPound},
	{Name: "Gold", Ticker: "GC=F", Unit: model.UnitOunce},
	{Name: "MP Materials", Ticker: "MP", Unit: model.UnitNone},
}

func goldOnly() model.SeriesSet {
	start := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	var pts []model.PricePoint
	for i, c := range []float64{2660, 2675.5, 2690.2, 2681, 2702.4} {
		pts = append(pts, model.PricePoint{Date: start.AddDate(0, 0, i), Close: c})
	}
	return model.SeriesSet{
		Period: model.Period1M,
		Series: []model.PriceSeries{{Symbol: testSymbols[1], Points: pts}},
	}
}

func TestPriceFormatter(t *testing.T) {
	f := PriceFormatter{}
	tests := []struct {
		in   float64
		want string
	}{
		{950, "$950"},
		{4.4, "$4"},
		{1000, "$1.0K"},
		{2000, "$2.0K"},
		{2500, "$2.5K"},
		{2960, "$3.0K"},
		{12000, "$12.0K"},
		{1234567, "$1,234.6K"},
	}
	for _, tt := range tests {
		if got := f.Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	custom := PriceFormatter{Threshold: 10000}
	if got := custom.Format(2500); got != "$2,500" {
		t.Errorf("custom threshold: Format(2500) = %q, want $2,500", got)
	}
}

func TestLabels(t *testing.T) {
	if got := AxisLabel(testSymbols[0]); got != "Price (USD/lb)" {
		t.Errorf("AxisLabel = %q", got)
	}
	if got := AxisLabel(model.Symbol{Name: "X"}); got != "Price (USD)" {
		t.Errorf("AxisLabel(no unit) = %q", got)
	}
	if got := CellTitle(testSymbols[1], model.Period1Y); got != "Gold Price (1Y)" {
		t.Errorf("CellTitle = %q", got)
	}
}

func TestLayout_DeclarationOrder(t *testing.T) {
	g := Layout(testSymbols, goldOnly())
	if g[0][0].Symbol.Name != "Copper" || g[0][0].Series != nil {
		t.Errorf("cell (0,0) should be an empty Copper slot, got %+v", g[0][0])
	}
	if g[0][1].Symbol.Name != "Gold" || g[0][1].Series == nil {
		t.Errorf("cell (0,1) should hold Gold, got %+v", g[0][1])
	}
	if g[2][2].Symbol.Name != "" {
		t.Errorf("trailing cell should be empty, got %+v", g[2][2])
	}
	populated := g.Populated()
	if len(populated) != 1 || populated[0].Symbol.Name != "Gold" {
		t.Errorf("expected only Gold populated, got %+v", populated)
	}
}

func TestLayout_FullTable(t *testing.T) {
	g := Layout(model.DefaultSymbols, model.SeriesSet{})
	if g[2][2].Symbol.Name != "MP Materials" || g[1][0].Symbol.Name != "Silver" {
		t.Errorf("unexpected placement: %s, %s", g[2][2].Symbol.Name, g[1][0].Symbol.Name)
	}
}

func TestFileName(t *testing.T) {
	ref := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := FileName(ModePNG, model.Period1M, &ref); got != "metal_and_rare_earth_prices_1M_20250115.png" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName(ModeHTML, model.Period1W, nil); got != "metal_and_rare_earth_prices_1W_current.html" {
		t.Errorf("FileName(nil) = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("PNG"); err != nil || m != ModePNG {
		t.Errorf("ParseMode(PNG) = %q, %v", m, err)
	}
	if m, err := ParseMode("interactive"); err != nil || m != ModeHTML {
		t.Errorf("ParseMode(interactive) = %q, %v", m, err)
	}
	if _, err := ParseMode("svg"); err == nil {
		t.Error("expected error for svg")
	}
}

func TestRender_OneArtifactPerMode(t *testing.T) {
	ref := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, mode := range []Mode{ModePNG, ModeHTML} {
		dir := t.TempDir()
		r, err := New(mode, testSymbols, Options{Dir: dir, WidthPx: 900, HeightPx: 900, DPI: 96})
		if err != nil {
			t.Fatalf("New(%s): %v", mode, err)
		}
		art, err := r.Render(goldOnly(), &ref)
		if err != nil {
			t.Fatalf("%s render: %v", mode, err)
		}
		if art.Cells != 1 {
			t.Errorf("%s: expected 1 populated cell, got %d", mode, art.Cells)
		}
		if want := filepath.Join(dir, FileName(mode, model.Period1M, &ref)); art.Path != want {
			t.Errorf("%s: path = %s, want %s", mode, art.Path, want)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("%s: expected exactly one file, got %d", mode, len(entries))
		}
	}
}

func TestHTMLRender_Content(t *testing.T) {
	dir := t.TempDir()
	r, _ := New(ModeHTML, testSymbols, Options{Dir: dir})
	art, err := r.Render(goldOnly(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.Contains(doc, "Metal and Rare Earth Prices (1M)") {
		t.Error("missing banner title")
	}
	if !strings.Contains(doc, "Gold Price (1M)") {
		t.Error("missing Gold cell")
	}
	if strings.Contains(doc, "Copper Price") {
		t.Error("Copper has no data and should not be charted")
	}
}

func TestRender_NoData(t *testing.T) {
	r, _ := New(ModePNG, testSymbols, Options{Dir: t.TempDir()})
	if _, err := r.Render(model.SeriesSet{Period: model.Period1W}, nil); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestWithBanner(t *testing.T) {
	got := withBanner("<html><body><div></div></body></html>", "A & B", 500)
	if !strings.Contains(got, "<body>\n<style>") || !strings.Contains(got, "<h1") || !strings.Contains(got, "A &amp; B") {
		t.Errorf("unexpected banner insertion: %s", got)
	}
	if !strings.Contains(got, "repeat(3, 500px)") {
		t.Errorf("missing grid style: %s", got)
	}
}

func TestHTMLSlots_KeepDeclaredPositions(t *testing.T) {
	r, err := New(ModeHTML, testSymbols, Options{Dir: t.TempDir(), WidthPx: 900, HeightPx: 900})
	if err != nil {
		t.Fatal(err)
	}
	h := r.(*HTMLRenderer)
	set := goldOnly()
	slots := h.slots(Layout(testSymbols, set), set.Period)
	if len(slots) != GridRows*GridCols {
		t.Fatalf("slots = %d, want %d", len(slots), GridRows*GridCols)
	}
	for i, c := range slots {
		want := ""
		if i == 1 {
			want = "Gold Price (1M)"
		}
		if c.Title.Title != want {
			t.Errorf("slot %d title = %q, want %q", i, c.Title.Title, want)
		}
	}
}

func TestHTMLRender_FixedGrid(t *testing.T) {
	r, _ := New(ModeHTML, testSymbols, Options{Dir: t.TempDir(), WidthPx: 900, HeightPx: 900})
	art, err := r.Render(goldOnly(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.Contains(doc, "grid-template-columns:repeat(3, 300px)") {
		t.Error("page is not pinned to a three-column grid")
	}
	if n := strings.Count(doc, "echarts.init("); n != GridRows*GridCols {
		t.Errorf("chart instances = %d, want %d", n, GridRows*GridCols)
	}
	if !strings.Contains(doc, `"formatter":function (v)`) {
		t.Error("y-axis tick formatter is not emitted as a JS function")
	}
}
