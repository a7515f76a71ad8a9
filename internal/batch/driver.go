package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"MineralTracker/internal/calculator"
	"MineralTracker/internal/chart"
	"MineralTracker/internal/collector"
	"MineralTracker/internal/model"
	"MineralTracker/internal/publisher"
	"MineralTracker/internal/recorder"
	"MineralTracker/internal/store"
)

// Options is the explicit run configuration of a Driver.
type Options struct {
	Periods       []model.Period
	Start, End    time.Time
	Workers       int
	SaveJSON      bool
	DataDir       string
	UploadRetries int
}

// Status classifies the outcome of one unit.
type Status string

const (
	StatusOK      Status = "OK"
	StatusPartial Status = "PARTIAL"
	StatusNoData  Status = "NO_DATA"
	StatusError   Status = "ERROR"
)

// UnitResult is the outcome of one (reference date, period) unit.
type UnitResult struct {
	Request   model.ChartRequest
	Start     time.Time
	End       time.Time
	Status    Status
	Symbols   []string
	Failures  []model.FetchFailure
	JSONPath  string
	Artifacts []chart.Artifact
	URLs      []string
	Errors    []error
}

// Summary aggregates the units of a run.
type Summary struct {
	Units []*UnitResult
}

// Count returns how many units ended with status s.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, u := range s.Units {
		if u.Status == st {
			n++
		}
	}
	return n
}

// Driver runs fetch, store, render and publish for each unit of work.
type Driver struct {
	opts      Options
	collector *collector.Collector
	renderers []chart.Renderer
	uploader  publisher.Uploader
	urlLog    *publisher.URLLog
	recorder  recorder.Recorder
	now       func() time.Time
}

// NewDriver validates opts and builds a Driver. uploader and urlLog may be nil.
func NewDriver(opts Options, col *collector.Collector, renderers []chart.Renderer,
	uploader publisher.Uploader, urlLog *publisher.URLLog, rec recorder.Recorder) (*Driver, error) {
	for _, p := range opts.Periods {
		if _, err := calculator.OffsetDays(p); err != nil {
			return nil, err
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Driver{
		opts:      opts,
		collector: col,
		renderers: renderers,
		uploader:  uploader,
		urlLog:    urlLog,
		recorder:  rec,
		now:       time.Now,
	}, nil
}

// SetClock replaces the wall clock used for "current" runs and upload timestamps.
func (d *Driver) SetClock(now func() time.Time) { d.now = now }

// Run back-fills every date of the window for every period. Only an invalid period
// or context cancellation stops the run early.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	log.Printf("[INFO] back-fill %s..%s, periods %v", d.opts.Start.Format("2006-01-02"), d.opts.End.Format("2006-01-02"), d.opts.Periods)
	sum := &Summary{}
	w := newWindow(d.opts.Start, d.opts.End)
	for {
		date, ok := w.Next()
		if !ok {
			break
		}
		log.Printf("[INFO] === %s ===", date.Format("2006-01-02"))
		ref := date
		units, err := d.runDate(ctx, &ref)
		sum.Units = append(sum.Units, units...)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// RunCurrent renders every period once against the current time.
func (d *Driver) RunCurrent(ctx context.Context) (*Summary, error) {
	units, err := d.runDate(ctx, nil)
	return &Summary{Units: units}, err
}

func (d *Driver) runDate(ctx context.Context, ref *time.Time) ([]*UnitResult, error) {
	units := make([]*UnitResult, len(d.opts.Periods))
	if d.opts.Workers == 1 {
		for i, p := range d.opts.Periods {
			if err := ctx.Err(); err != nil {
				return compact(units), err
			}
			u, err := d.RunUnit(ctx, model.ChartRequest{Period: p, Reference: ref})
			units[i] = u
			if err != nil {
				return compact(units), err
			}
		}
		return units, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, p := range d.opts.Periods {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := d.RunUnit(gctx, model.ChartRequest{Period: p, Reference: ref})
			units[i] = u
			return err
		})
	}
	err := g.Wait()
	return compact(units), err
}

// RunUnit executes one unit. The returned error is non-nil only for an invalid
// period or a cancelled context; all other failures are reported in the result.
func (d *Driver) RunUnit(ctx context.Context, req model.ChartRequest) (*UnitResult, error) {
	res := &UnitResult{Request: req}
	log.Printf("[INFO] %s charts (reference %s)", req.Period, model.DateLabel(req.Reference))

	start, end, err := calculator.DateRange(req.Period, req.Reference, d.now)
	if err != nil {
		res.Status = StatusError
		res.Errors = append(res.Errors, err)
		d.record(res)
		return res, err
	}
	res.Start, res.End = start, end

	fetched, err := d.collector.Collect(ctx, start, end)
	if fetched != nil {
		res.Failures = fetched.Failures
		for _, s := range fetched.Series {
			res.Symbols = append(res.Symbols, s.Symbol.Name)
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Status = StatusError
			res.Errors = append(res.Errors, ctxErr)
			return res, ctxErr
		}
		res.Status = StatusNoData
		res.Errors = append(res.Errors, err)
		log.Printf("[WARN] %s: %v, skipping", req.Period, err)
		d.record(res)
		return res, nil
	}

	set := model.SeriesSet{Period: req.Period, Series: fetched.Series}
	if d.opts.SaveJSON {
		path, err := store.Save(d.opts.DataDir, set, req.Reference)
		if err != nil {
			log.Printf("[ERROR] save %s series: %v", req.Period, err)
			res.Errors = append(res.Errors, err)
		} else {
			res.JSONPath = path
		}
	}

	for _, r := range d.renderers {
		art, err := r.Render(set, req.Reference)
		if err != nil {
			log.Printf("[ERROR] render %s %s: %v", req.Period, r.Mode(), err)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Artifacts = append(res.Artifacts, art)
		if art.Mode == chart.ModePNG {
			d.publish(ctx, res, art)
		}
	}

	switch {
	case len(res.Errors) > 0 && len(res.Artifacts) == 0 && res.JSONPath == "":
		res.Status = StatusError
	case len(res.Failures) > 0 || len(res.Errors) > 0:
		res.Status = StatusPartial
	default:
		res.Status = StatusOK
	}
	d.record(res)
	return res, nil
}

func (d *Driver) publish(ctx context.Context, res *UnitResult, art chart.Artifact) {
	if d.uploader == nil {
		return
	}
	url, err := publisher.UploadWithRetry(ctx, d.uploader, art.Path, res.Request.Period, d.opts.UploadRetries)
	if err != nil {
		log.Printf("[ERROR] upload %s: %v", art.Path, err)
		res.Errors = append(res.Errors, err)
		return
	}
	res.URLs = append(res.URLs, url)
	if d.urlLog != nil {
		if err := d.urlLog.Append(d.now(), res.Request.Period, url); err != nil {
			log.Printf("[ERROR] append url log: %v", err)
			res.Errors = append(res.Errors, err)
		}
	}
	if err := d.recorder.RecordUpload(&recorder.UploadEvent{
		Period: string(res.Request.Period), LocalPath: art.Path, URL: url,
	}); err != nil {
		log.Printf("[ERROR] record upload: %v", err)
	}
}

func (d *Driver) record(res *UnitResult) {
	paths := make([]string, len(res.Artifacts))
	for i, a := range res.Artifacts {
		paths[i] = a.Path
	}
	msgs := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		msgs[i] = e.Error()
	}
	if err := d.recorder.RecordRun(&recorder.RunEvent{
		Period:        string(res.Request.Period),
		ReferenceDate: model.DateLabel(res.Request.Reference),
		Provider:      d.collector.Fetcher.Name(),
		SymbolsOK:     len(res.Symbols),
		SymbolsFailed: len(res.Failures),
		Status:        string(res.Status),
		JSONPath:      res.JSONPath,
		Artifacts:     strings.Join(paths, ","),
		Error:         strings.Join(msgs, "; "),
	}); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
}

// IsFatal reports whether err should abort the process. A cancelled run is not
// fatal; its partial summary is still reported.
func IsFatal(err error) bool {
	return errors.Is(err, model.ErrInvalidPeriod)
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func compact(units []*UnitResult) []*UnitResult {
	out := units[:0]
	for _, u := range units {
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (u *UnitResult) String() string {
	return fmt.Sprintf("%s@%s %s", u.Request.Period, model.DateLabel(u.Request.Reference), u.Status)
}
