package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"MineralTracker/internal/chart"
	"MineralTracker/internal/collector"
	"MineralTracker/internal/model"
	"MineralTracker/internal/publisher"
	"MineralTracker/internal/store"
)

var testSymbols = []model.Symbol{
	{Name: "Copper", Ticker: "HG=F", Unit: model.UnitPound},
	{Name: "Gold", Ticker: "GC=F", Unit: model.UnitOunce},
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// countingRenderer records every render without touching the filesystem.
type countingRenderer struct {
	mu    sync.Mutex
	mode  chart.Mode
	calls int
	err   error
}

func (c *countingRenderer) Mode() chart.Mode { return c.mode }

func (c *countingRenderer) Render(set model.SeriesSet, ref *time.Time) (chart.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return chart.Artifact{}, c.err
	}
	return chart.Artifact{Mode: c.mode, Path: chart.FileName(c.mode, set.Period, ref), Cells: set.Len()}, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeUploader) Upload(_ context.Context, path string, period model.Period) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return "https://storage.example/" + string(period) + ".png", nil
}

func goldMock() *collector.MockFetcher {
	return &collector.MockFetcher{
		Points: map[string][]model.PricePoint{
			"GC=F": collector.GenerateMockPoints(2700, 5, day(2025, 1, 15)),
		},
		Errors: map[string]error{"HG=F": errors.New("connection refused")},
	}
}

func TestRunUnit_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	col := collector.NewCollector(goldMock(), testSymbols)
	var renderers []chart.Renderer
	for _, m := range []chart.Mode{chart.ModePNG, chart.ModeHTML} {
		r, err := chart.New(m, testSymbols, chart.Options{Dir: filepath.Join(dir, "images"), WidthPx: 600, HeightPx: 600})
		if err != nil {
			t.Fatalf("chart.New(%s): %v", m, err)
		}
		renderers = append(renderers, r)
	}
	d, err := NewDriver(Options{
		Periods:  []model.Period{model.Period1M},
		SaveJSON: true,
		DataDir:  filepath.Join(dir, "data"),
	}, col, renderers, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	ref := day(2025, 1, 15)
	res, err := d.RunUnit(context.Background(), model.ChartRequest{Period: model.Period1M, Reference: &ref})
	if err != nil {
		t.Fatalf("RunUnit: %v", err)
	}
	if !res.Start.Equal(day(2024, 12, 16)) {
		t.Errorf("start = %s, want 2024-12-16", res.Start.Format("2006-01-02"))
	}
	if res.Status != StatusPartial {
		t.Errorf("status = %s, want %s", res.Status, StatusPartial)
	}
	if len(res.Failures) != 1 || res.Failures[0].Symbol != "Copper" {
		t.Errorf("failures = %+v, want Copper", res.Failures)
	}

	wantJSON := filepath.Join(dir, "data", "metal_prices_1M_20250115.json")
	if res.JSONPath != wantJSON {
		t.Errorf("json path = %s, want %s", res.JSONPath, wantJSON)
	}
	doc, err := store.Load(wantJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc) != 1 {
		t.Errorf("document has %d entries, want 1", len(doc))
	}
	if e, ok := doc["Gold"]; !ok || len(e.Prices) != 5 {
		t.Errorf("Gold entry = %+v", e)
	}

	if len(res.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(res.Artifacts))
	}
	for _, a := range res.Artifacts {
		if a.Cells != 1 {
			t.Errorf("%s cells = %d, want 1", a.Mode, a.Cells)
		}
		if !strings.Contains(a.Path, "metal_and_rare_earth_prices_1M_20250115") {
			t.Errorf("artifact path %s", a.Path)
		}
		if _, err := os.Stat(a.Path); err != nil {
			t.Errorf("stat %s: %v", a.Path, err)
		}
	}
}

func TestRunUnit_NoData(t *testing.T) {
	mock := &collector.MockFetcher{Errors: map[string]error{
		"HG=F": errors.New("boom"),
		"GC=F": errors.New("boom"),
	}}
	r := &countingRenderer{mode: chart.ModePNG}
	d, err := NewDriver(Options{Periods: []model.Period{model.Period1W}}, collector.NewCollector(mock, testSymbols),
		[]chart.Renderer{r}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	ref := day(2025, 1, 15)
	res, err := d.RunUnit(context.Background(), model.ChartRequest{Period: model.Period1W, Reference: &ref})
	if err != nil {
		t.Fatalf("RunUnit should not fail the run: %v", err)
	}
	if res.Status != StatusNoData {
		t.Errorf("status = %s, want %s", res.Status, StatusNoData)
	}
	if r.calls != 0 {
		t.Errorf("renderer called %d times, want 0", r.calls)
	}
	if len(res.Errors) == 0 || !errors.Is(res.Errors[0], model.ErrNoData) {
		t.Errorf("errors = %v, want ErrNoData", res.Errors)
	}
}

func TestRun_WindowCount(t *testing.T) {
	mock := &collector.MockFetcher{Points: map[string][]model.PricePoint{
		"GC=F": collector.GenerateMockPoints(2700, 3, day(2025, 1, 1)),
	}}
	r := &countingRenderer{mode: chart.ModePNG}
	d, err := NewDriver(Options{
		Periods: model.AllPeriods,
		Start:   day(2025, 1, 1),
		End:     day(2025, 2, 4),
	}, collector.NewCollector(mock, testSymbols), []chart.Renderer{r}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Units) != 35*4 {
		t.Errorf("units = %d, want %d", len(sum.Units), 35*4)
	}
	if r.calls != 35*4 {
		t.Errorf("renders = %d, want %d", r.calls, 35*4)
	}
	first, last := sum.Units[0], sum.Units[len(sum.Units)-1]
	if model.DateLabel(first.Request.Reference) != "2025-01-01" || model.DateLabel(last.Request.Reference) != "2025-02-04" {
		t.Errorf("window = %s..%s", model.DateLabel(first.Request.Reference), model.DateLabel(last.Request.Reference))
	}
	if got := sum.Count(StatusOK); got != 35*4 {
		t.Errorf("OK units = %d, want %d", got, 35*4)
	}
}

func TestRun_ConcurrentWorkersKeepOrder(t *testing.T) {
	mock := &collector.MockFetcher{Points: map[string][]model.PricePoint{
		"GC=F": collector.GenerateMockPoints(2700, 3, day(2025, 1, 1)),
	}}
	r := &countingRenderer{mode: chart.ModePNG}
	d, err := NewDriver(Options{
		Periods: model.AllPeriods,
		Start:   day(2025, 1, 1),
		End:     day(2025, 1, 3),
		Workers: 4,
	}, collector.NewCollector(mock, testSymbols), []chart.Renderer{r}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Units) != 3*4 {
		t.Fatalf("units = %d, want %d", len(sum.Units), 3*4)
	}
	for i, u := range sum.Units {
		wantDate := day(2025, 1, 1).AddDate(0, 0, i/4).Format("2006-01-02")
		wantPeriod := model.AllPeriods[i%4]
		if got := model.DateLabel(u.Request.Reference); got != wantDate || u.Request.Period != wantPeriod {
			t.Errorf("unit %d = %s %s, want %s %s", i, got, u.Request.Period, wantDate, wantPeriod)
		}
		if u.Status != StatusOK {
			t.Errorf("unit %d status = %s", i, u.Status)
		}
	}
	if r.calls != 3*4 {
		t.Errorf("renders = %d, want %d", r.calls, 3*4)
	}
	if len(mock.Calls) != 3*4*len(testSymbols) {
		t.Errorf("fetches = %d, want %d", len(mock.Calls), 3*4*len(testSymbols))
	}
}

func TestRun_Cancelled(t *testing.T) {
	mock := &collector.MockFetcher{}
	d, err := NewDriver(Options{
		Periods: model.AllPeriods,
		Start:   day(2025, 1, 1),
		End:     day(2025, 2, 4),
	}, collector.NewCollector(mock, testSymbols), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(sum.Units) != 0 {
		t.Errorf("units = %d, want 0", len(sum.Units))
	}
}

func TestNewDriver_InvalidPeriod(t *testing.T) {
	_, err := NewDriver(Options{Periods: []model.Period{"3M"}}, collector.NewCollector(&collector.MockFetcher{}, testSymbols), nil, nil, nil, nil)
	if !errors.Is(err, model.ErrInvalidPeriod) {
		t.Fatalf("err = %v, want ErrInvalidPeriod", err)
	}
	if !IsFatal(err) {
		t.Error("IsFatal(ErrInvalidPeriod) = false")
	}
}

func TestIsFatal_CancellationIsNot(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded, fmt.Errorf("run: %w", context.Canceled)} {
		if IsFatal(err) {
			t.Errorf("IsFatal(%v) = true, want false", err)
		}
		if !IsCancelled(err) {
			t.Errorf("IsCancelled(%v) = false, want true", err)
		}
	}
	if IsCancelled(model.ErrInvalidPeriod) {
		t.Error("IsCancelled(ErrInvalidPeriod) = true")
	}
}

func TestRunCurrent_PublishesPNG(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	urls := publisher.NewURLLog(filepath.Join(dir, "urls.txt"))
	png := &countingRenderer{mode: chart.ModePNG}
	html := &countingRenderer{mode: chart.ModeHTML}
	d, err := NewDriver(Options{Periods: []model.Period{model.Period1W, model.Period1Y}, Workers: 2},
		collector.NewCollector(&collector.MockFetcher{Points: map[string][]model.PricePoint{
			"GC=F": collector.GenerateMockPoints(2700, 3, day(2025, 2, 4)),
		}}, testSymbols[1:]), []chart.Renderer{png, html}, up, urls, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	fixed := time.Date(2025, 2, 4, 13, 5, 9, 0, time.UTC)
	d.SetClock(func() time.Time { return fixed })

	sum, err := d.RunCurrent(context.Background())
	if err != nil {
		t.Fatalf("RunCurrent: %v", err)
	}
	if len(sum.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(sum.Units))
	}
	for _, u := range sum.Units {
		if u.Request.Reference != nil {
			t.Errorf("reference = %v, want nil", u.Request.Reference)
		}
		if !u.End.Equal(fixed) {
			t.Errorf("end = %s, want %s", u.End, fixed)
		}
		if len(u.URLs) != 1 {
			t.Errorf("%s urls = %v, want 1", u.Request.Period, u.URLs)
		}
	}
	if len(up.paths) != 2 {
		t.Errorf("uploads = %d, want 2 (png only)", len(up.paths))
	}
	lines, err := urls.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "2025-02-04 13:05:09 - ") {
		t.Errorf("url log = %v", lines)
	}
}

func TestWindow(t *testing.T) {
	w := newWindow(day(2025, 1, 30), day(2025, 2, 2))
	var got []string
	for {
		d, ok := w.Next()
		if !ok {
			break
		}
		got = append(got, d.Format("01-02"))
	}
	want := "01-30,01-31,02-01,02-02"
	if strings.Join(got, ",") != want {
		t.Errorf("window = %v, want %s", got, want)
	}
	if _, ok := newWindow(day(2025, 2, 2), day(2025, 2, 1)).Next(); ok {
		t.Error("reversed window should be done immediately")
	}
}
