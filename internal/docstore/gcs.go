package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCS stores documents as objects in a Cloud Storage bucket.
type GCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// NewGCS opens a storage client with application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCS{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

// ObjectName is <prefix><date>.json.
func (g *GCS) ObjectName(day time.Time) string {
	return g.Prefix + FileName(day)
}

func (g *GCS) Save(ctx context.Context, day time.Time, data []byte) error {
	wc := g.Client.Bucket(g.Bucket).Object(g.ObjectName(day)).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", g.Bucket, g.ObjectName(day), err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("writing gs://%s/%s: %w", g.Bucket, g.ObjectName(day), err)
	}
	return nil
}

func (g *GCS) Load(ctx context.Context, day time.Time) ([]byte, error) {
	rc, err := g.Client.Bucket(g.Bucket).Object(g.ObjectName(day)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", g.Bucket, g.ObjectName(day), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.Client.Close()
}
