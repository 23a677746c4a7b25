// Package iconstore issues short-lived upload targets for app icons. Icons
// are immutable once written: every upload goes to a version-stamped key, so
// a target is only ever handed out for a version that does not exist yet.
package iconstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/connectorhub/registry/internal/registry/domain/app"
)

// UploadTarget is a presigned PUT for one icon size.
type UploadTarget struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Expires time.Time         `json:"expires"`
}

// Links are the upload targets of one icon version, keyed by pixel size.
type Links struct {
	Icon32  UploadTarget `json:"32"`
	Icon64  UploadTarget `json:"64"`
	Expires time.Time    `json:"expires"`
}

// UploadTargeter issues upload targets for both icon sizes of an app version.
type UploadTargeter interface {
	UploadTargets(ctx context.Context, appID string, version int) (Links, error)
}

// Presigner is the subset of the S3 presign client the store uses.
// *s3.PresignClient satisfies it.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store issues presigned PUTs into an S3 bucket.
type S3Store struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
}

var _ UploadTargeter = (*S3Store)(nil)

// NewS3Store creates a store. A zero ttl defaults to 15 minutes.
func NewS3Store(presigner Presigner, bucket string, ttl time.Duration) *S3Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Store{presigner: presigner, bucket: bucket, ttl: ttl}
}

func (s *S3Store) UploadTargets(ctx context.Context, appID string, version int) (Links, error) {
	expires := time.Now().Add(s.ttl)

	icon32, err := s.presign(ctx, app.IconPath(appID, 32, version), expires)
	if err != nil {
		return Links{}, err
	}
	icon64, err := s.presign(ctx, app.IconPath(appID, 64, version), expires)
	if err != nil {
		return Links{}, err
	}
	return Links{Icon32: icon32, Icon64: icon64, Expires: expires}, nil
}

func (s *S3Store) presign(ctx context.Context, key string, expires time.Time) (UploadTarget, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("image/png"),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presign %s: %w", key, err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return UploadTarget{URL: req.URL, Headers: headers, Expires: expires}, nil
}

// FakeStore returns deterministic targets for tests.
type FakeStore struct {
	BaseURL string
}

var _ UploadTargeter = (*FakeStore)(nil)

func (f *FakeStore) UploadTargets(_ context.Context, appID string, version int) (Links, error) {
	expires := time.Now().Add(15 * time.Minute)
	target := func(size int) UploadTarget {
		return UploadTarget{
			URL:     f.BaseURL + "/" + app.IconPath(appID, size, version),
			Expires: expires,
		}
	}
	return Links{Icon32: target(32), Icon64: target(64), Expires: expires}, nil
}
