package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// gcsURLPattern matches the public object URLs we persist on products/items,
// e.g. https://storage.googleapis.com/<bucket>/<object path>.
var gcsURLPattern = regexp.MustCompile(`^https://storage\.[^/]+\.com/([^/]+)/(.+)$`)

// Client wraps the bucket operations the API needs.
type Client struct {
	raw           *storage.Client
	defaultBucket string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a storage client bound to the configured bucket.
func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	raw, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	client := &Client{raw: raw, defaultBucket: cfg.BucketName}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

// DefaultBucket returns the bucket objects are written to.
func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Ping verifies the configured bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.raw.Bucket(c.defaultBucket).Attrs(ctx)
	return err
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Upload writes the reader's content to objectPath in the default bucket and
// returns the public URL.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if c == nil || c.raw == nil {
		return "", errors.New("gcs client not initialized")
	}
	w := c.raw.Bucket(c.defaultBucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object %s: %w", objectPath, err)
	}
	return c.PublicURL(objectPath), nil
}

// Download reads the full content of objectPath from the default bucket.
func (c *Client) Download(ctx context.Context, objectPath string) ([]byte, error) {
	return c.downloadFrom(ctx, c.defaultBucket, objectPath)
}

// DownloadURL fetches an object referenced by one of our persisted public
// URLs, resolving bucket and path out of the URL itself.
func (c *Client) DownloadURL(ctx context.Context, publicURL string) ([]byte, error) {
	bucket, objectPath, err := ParseObjectURL(publicURL)
	if err != nil {
		return nil, err
	}
	return c.downloadFrom(ctx, bucket, objectPath)
}

func (c *Client) downloadFrom(ctx context.Context, bucket, objectPath string) ([]byte, error) {
	if c == nil || c.raw == nil {
		return nil, errors.New("gcs client not initialized")
	}
	r, err := c.raw.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", objectPath, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", objectPath, err)
	}
	return data, nil
}

// Delete removes objectPath from the default bucket.
func (c *Client) Delete(ctx context.Context, objectPath string) error {
	if c == nil || c.raw == nil {
		return errors.New("gcs client not initialized")
	}
	return c.raw.Bucket(c.defaultBucket).Object(objectPath).Delete(ctx)
}

// PublicURL returns the stable URL for an object in the default bucket.
func (c *Client) PublicURL(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.defaultBucket, strings.Join(segments, "/"))
}

// ParseObjectURL splits a persisted public URL into bucket and object path.
func ParseObjectURL(publicURL string) (bucket, objectPath string, err error) {
	match := gcsURLPattern.FindStringSubmatch(publicURL)
	if match == nil {
		return "", "", fmt.Errorf("invalid gcs url %q", publicURL)
	}
	objectPath, err = url.PathUnescape(match[2])
	if err != nil {
		return "", "", fmt.Errorf("invalid gcs url %q: %w", publicURL, err)
	}
	return match[1], objectPath, nil
}
