package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"MineralTracker/internal/model"
)

// periodDays is the lookback offset of each period code.
var periodDays = map[model.Period]int{
	model.Period1W: 7,
	model.Period1M: 30,
	model.Period1Y: 365,
	model.Period5Y: 365 * 5,
}

// OffsetDays returns the lookback of p in days.
func OffsetDays(p model.Period) (int, error) {
	days, ok := periodDays[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidPeriod, p)
	}
	return days, nil
}

// DateRange returns the [start, end] window for p ending at ref, or at now when ref is nil.
func DateRange(p model.Period, ref *time.Time, now func() time.Time) (start, end time.Time, err error) {
	days, err := OffsetDays(p)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if ref != nil {
		end = *ref
	} else if now != nil {
		end = now()
	} else {
		end = time.Now()
	}
	return end.AddDate(0, 0, -days), end, nil
}

// PriceBounds scans prices and returns the low and high.
func PriceBounds(prices []float64) (low, high float64, err error) {
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range prices {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return low, high, nil
}

// PaddedBounds widens [low, high] by frac of the span on each side.
// A flat series is padded by frac of its magnitude so the axis never collapses.
func PaddedBounds(prices []float64, frac float64) (min, max float64, err error) {
	low, high, err := PriceBounds(prices)
	if err != nil {
		return 0, 0, err
	}
	span := high - low
	if span == 0 {
		span = math.Abs(high)
		if span == 0 {
			span = 1
		}
	}
	return low - span*frac, high + span*frac, nil
}
