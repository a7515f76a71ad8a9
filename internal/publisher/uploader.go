package publisher

import (
	"context"
	"fmt"
	"log"
	"time"

	"MineralTracker/internal/model"
)

// Uploader publishes a rendered image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string, period model.Period) (string, error)
}

// ObjectName returns the bucket path of an upload made at t.
func ObjectName(prefix string, period model.Period, t time.Time) string {
	name := fmt.Sprintf("%s_%s.png", period, t.Format("20060102_150405"))
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// UploadWithRetry uploads with exponential backoff.
func UploadWithRetry(ctx context.Context, u Uploader, localPath string, period model.Period, maxRetries int) (string, error) {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		url, err := u.Upload(ctx, localPath, period)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		log.Printf("[WARN] upload %s failed (attempt %d/%d): %v, retrying in %v", localPath, i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}
