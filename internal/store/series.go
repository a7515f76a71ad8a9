package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"MineralTracker/internal/model"
)

const dateLayout = "2006-01-02"

// Entry is the on-disk form of one symbol's series.
type Entry struct {
	Dates  []string   `json:"dates"`
	Prices []float64  `json:"prices"`
	Unit   model.Unit `json:"unit"`
}

// Document is a full saved fetch pass keyed by display name.
type Document map[string]Entry

// FileName returns the document name for a period and optional reference date.
func FileName(period model.Period, ref *time.Time) string {
	return fmt.Sprintf("metal_prices_%s_%s.json", period, model.DateTag(ref))
}

// Encode converts series into a Document.
func Encode(series []model.PriceSeries) Document {
	doc := make(Document, len(series))
	for _, s := range series {
		e := Entry{
			Dates:  make([]string, len(s.Points)),
			Prices: make([]float64, len(s.Points)),
			Unit:   model.UnitOf(s.Symbol),
		}
		for i, p := range s.Points {
			e.Dates[i] = p.Date.Format(dateLayout)
			e.Prices[i] = p.Close
		}
		doc[s.Symbol.Name] = e
	}
	return doc
}

// Save writes the series set to dir, replacing any file of the same name.
func Save(dir string, set model.SeriesSet, ref *time.Time) (string, error) {
	path := filepath.Join(dir, FileName(set.Period, ref))
	data, err := json.MarshalIndent(Encode(set.Series), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	log.Printf("[INFO] price data saved to %s", path)
	return path, nil
}

// Load reads a document written by Save.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Series decodes the document back into a set ordered by symbols.
// Entries not present in symbols are appended under their stored unit.
func (d Document) Series(period model.Period, symbols []model.Symbol) (model.SeriesSet, error) {
	set := model.SeriesSet{Period: period}
	seen := make(map[string]bool, len(d))
	for _, sym := range symbols {
		e, ok := d[sym.Name]
		if !ok {
			continue
		}
		seen[sym.Name] = true
		ps, err := e.decode(sym)
		if err != nil {
			return set, err
		}
		set.Series = append(set.Series, ps)
	}
	var extra []string
	for name := range d {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		e := d[name]
		ps, err := e.decode(model.Symbol{Name: name, Unit: e.Unit})
		if err != nil {
			return set, err
		}
		set.Series = append(set.Series, ps)
	}
	return set, nil
}

func (e Entry) decode(sym model.Symbol) (model.PriceSeries, error) {
	if len(e.Dates) != len(e.Prices) {
		return model.PriceSeries{}, fmt.Errorf("%s: %d dates but %d prices", sym.Name, len(e.Dates), len(e.Prices))
	}
	ps := model.PriceSeries{Symbol: sym, Points: make([]model.PricePoint, len(e.Dates))}
	for i, ds := range e.Dates {
		t, err := time.Parse(dateLayout, ds)
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("%s: %w", sym.Name, err)
		}
		ps.Points[i] = model.PricePoint{Date: t, Close: e.Prices[i]}
	}
	return ps, nil
}
