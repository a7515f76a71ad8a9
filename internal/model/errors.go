package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriod is returned for an unrecognized period code.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrNoData means every symbol of a fetch pass failed or came back empty.
	ErrNoData = errors.New("no data available")
)

// FetchFailure records a single symbol that could not be fetched.
type FetchFailure struct {
	Symbol string
	Err    error
}

func (f *FetchFailure) Error() string { return fmt.Sprintf("fetch %s: %v", f.Symbol, f.Err) }

func (f *FetchFailure) Unwrap() error { return f.Err }

// WriteFailure wraps an error writing an output file.
type WriteFailure struct {
	Path string
	Err  error
}

func (w *WriteFailure) Error() string { return fmt.Sprintf("write %s: %v", w.Path, w.Err) }

func (w *WriteFailure) Unwrap() error { return w.Err }
