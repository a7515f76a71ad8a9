package model

import (
	"fmt"
	"strings"
)

// Period is a lookback window code.
type Period string

const (
	Period1W Period = "1W"
	Period1M Period = "1M"
	Period1Y Period = "1Y"
	Period5Y Period = "5Y"
)

// AllPeriods lists the supported codes in batch order.
var AllPeriods = []Period{Period1W, Period1M, Period1Y, Period5Y}

var periodAliases = map[string]Period{
	"1w": Period1W, "1-week": Period1W,
	"1m": Period1M, "1-month": Period1M,
	"1y": Period1Y, "1-year": Period1Y,
	"5y": Period5Y, "5-year": Period5Y,
}

// ParsePeriod accepts both the short ("1M") and long ("1-month") forms.
func ParsePeriod(s string) (Period, error) {
	if p, ok := periodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}
