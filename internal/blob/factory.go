package blob

import (
	"context"
	"fmt"
	"os"
)

// Environment variables read by Open.
const (
	EnvDriver = "PLANTARY_BLOB_DRIVER"
	EnvFSRoot = "PLANTARY_BLOB_FS_ROOT"
)

// Config selects and configures a blob backend.
type Config struct {
	Driver Driver   `mapstructure:"driver"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

// Open selects a Store using environment variables.
//
//	PLANTARY_BLOB_DRIVER: fs|s3|memory (default fs)
//	PLANTARY_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	PLANTARY_BLOB_S3_*: see S3ConfigFromEnv
func Open(ctx context.Context) (Store, error) {
	cfg := Config{Driver: Driver(os.Getenv(EnvDriver)), FSRoot: os.Getenv(EnvFSRoot)}
	if cfg.Driver == DriverS3 {
		s3cfg, err := S3ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		cfg.S3 = s3cfg
	}
	return OpenConfig(ctx, cfg)
}

// OpenConfig builds the Store described by cfg. An empty driver means fs.
func OpenConfig(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
