package blob

import (
	"context"

	infraS3 "plantary/internal/infra/blob/s3"
)

// S3Config configures the S3 driver.
type S3Config = infraS3.Config

// NewS3 constructs an S3-backed Store from cfg.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	store, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// S3ConfigFromEnv reads PLANTARY_BLOB_S3_BUCKET, _REGION, _ENDPOINT and
// _PATH_STYLE.
func S3ConfigFromEnv() (S3Config, error) {
	return infraS3.ConfigFromEnv()
}

// NewMockS3ForTests returns an S3 Store wired to an in-process fake endpoint.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
