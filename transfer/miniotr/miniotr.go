// Package miniotr provides a MinIO implementation of transfer.Transferrer.
package miniotr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	bucketProbeAttempts = 3
	bucketProbeDelay    = time.Second
)

// Transferrer implements transfer.Transferrer using MinIO.
type Transferrer struct {
	client *minio.Client
	cfg    Config
}

// New creates a MinIO transferrer and verifies that the configured bucket
// is reachable, retrying transient failures a few times so a slow-starting
// storage container does not fail session construction.
func New(ctx context.Context, cfg Config) (*Transferrer, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	err = retry.Do(
		func() error {
			exists, probeErr := client.BucketExists(ctx, cfg.Bucket)
			if probeErr != nil {
				return probeErr
			}
			if !exists {
				return retry.Unrecoverable(errx.New(
					"bucket does not exist",
					errx.WithDetails(errx.D{"bucket": cfg.Bucket}),
				))
			}
			return nil
		},
		retry.Attempts(bucketProbeAttempts),
		retry.Delay(bucketProbeDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Transferrer{client: client, cfg: cfg}, nil
}

// Transfer uploads the content under a unique object name derived from the
// original filename and returns the durable URL for it.
func (t *Transferrer) Transfer(ctx context.Context, name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", errx.Wrap(err)
	}

	object := objectName(name)

	info, err := t.client.PutObject(
		ctx,
		t.cfg.Bucket,
		object,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: http.DetectContentType(data)},
	)
	if err != nil {
		return "", errx.Wrap(err)
	}

	if t.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(t.cfg.PublicBaseURL, "/") + "/" + object, nil
	}
	return info.Location, nil
}

// objectName builds a collision-free object key while keeping the original
// base name visible for operators browsing the bucket.
func objectName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	return fmt.Sprintf("%s_%s_%s%s", base, uuid.New().String(), time.Now().Format("2006-01-02"), ext)
}
