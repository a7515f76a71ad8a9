package publisher

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"MineralTracker/internal/model"
)

// URLLog appends one line per published chart to a plain-text file.
type URLLog struct {
	mu   sync.Mutex
	Path string
}

// NewURLLog returns a log writing to path.
func NewURLLog(path string) *URLLog { return &URLLog{Path: path} }

// FormatLine renders one log entry.
func FormatLine(t time.Time, period model.Period, url string) string {
	return fmt.Sprintf("%s - %s - %s", t.Format("2006-01-02 15:04:05"), period, url)
}

// Append records an upload.
func (l *URLLog) Append(t time.Time, period model.Period, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &model.WriteFailure{Path: l.Path, Err: err}
	}
	if _, err := f.WriteString(FormatLine(t, period, url) + "\n"); err != nil {
		f.Close()
		return &model.WriteFailure{Path: l.Path, Err: err}
	}
	return f.Close()
}

// Recent returns up to the last n entries, oldest first. A missing file yields no entries.
func (l *URLLog) Recent(n int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
