package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
)

var ErrNotFound = errors.New("object not found")

type Client interface {
	// Returns a V4 URL that allows a GET of the object until ttl elapses.
	SignedURL(ctx context.Context, bucketName string, objectName string, ttl time.Duration) (string, error)
}

type gcsClient struct {
	attrs func(ctx context.Context, bucketName string, objectName string) (*storage.ObjectAttrs, error)
	sign  func(bucketName string, objectName string, opts *storage.SignedURLOptions) (string, error)
	now   func() time.Time

	// Used to delay the next metadata read when GCS fails.
	backoffDuration time.Duration
}

func New(storageClient *storage.Client, backoffDuration time.Duration) Client {
	return &gcsClient{
		attrs: func(ctx context.Context, bucketName string, objectName string) (*storage.ObjectAttrs, error) {
			return storageClient.Bucket(bucketName).Object(objectName).Attrs(ctx)
		},
		sign: func(bucketName string, objectName string, opts *storage.SignedURLOptions) (string, error) {
			return storageClient.Bucket(bucketName).SignedURL(objectName, opts)
		},
		now:             time.Now,
		backoffDuration: backoffDuration,
	}
}

func (s *gcsClient) SignedURL(ctx context.Context, bucketName string, objectName string, ttl time.Duration) (string, error) {
	// Signing never touches the network, so check the object exists first.
	_, err := backoff.RetryWithData(func() (*storage.ObjectAttrs, error) {
		attrs, err := s.attrs(ctx, bucketName, objectName)
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, backoff.Permanent(ErrNotFound)
		}
		return attrs, err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.backoffDuration), 4), ctx))
	if errors.Is(err, ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read GCS object attributes: %w", err)
	}

	url, err := s.sign(bucketName, objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign GCS URL: %w", err)
	}
	return url, nil
}
