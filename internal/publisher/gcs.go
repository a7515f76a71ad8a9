package publisher

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"MineralTracker/internal/model"
)

// GCSUploader stores images in a Google Cloud Storage (Firebase Storage) bucket.
type GCSUploader struct {
	client *storage.Client
	Bucket string
	Prefix string
	Now    func() time.Time
}

// NewGCSUploader opens a storage client. An empty credentialsFile uses application default credentials.
func NewGCSUploader(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open storage client: %w", err)
	}
	return &GCSUploader{client: client, Bucket: bucket, Prefix: prefix, Now: time.Now}, nil
}

// Upload copies the file into the bucket, makes it world readable and returns its URL.
func (g *GCSUploader) Upload(ctx context.Context, localPath string, period model.Period) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := ObjectName(g.Prefix, period, g.Now())
	obj := g.client.Bucket(g.Bucket).Object(name)
	w := obj.NewWriter(ctx)
	w.ContentType = "image/png"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("make %s public: %w", name, err)
	}

	url := PublicURL(g.Bucket, name)
	log.Printf("[INFO] uploaded %s to %s", localPath, url)
	return url, nil
}

// Close releases the storage client.
func (g *GCSUploader) Close() error { return g.client.Close() }

// PublicURL returns the public download URL of an object.
func PublicURL(bucket, name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, name)
}
