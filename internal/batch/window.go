package batch

import "time"

type windowState int

const (
	iterating windowState = iota
	done
)

// window walks calendar days from start through end inclusive.
type window struct {
	cur, end time.Time
	state    windowState
}

func newWindow(start, end time.Time) *window {
	w := &window{cur: start, end: end}
	if start.After(end) {
		w.state = done
	}
	return w
}

// Next returns the current date and advances by one day.
func (w *window) Next() (time.Time, bool) {
	if w.state == done {
		return time.Time{}, false
	}
	d := w.cur
	w.cur = w.cur.AddDate(0, 0, 1)
	if w.cur.After(w.end) {
		w.state = done
	}
	return d, true
}
