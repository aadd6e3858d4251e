// pkg/manifest/load.go
package manifest

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Load reads path over Default(), applies env overrides and validates. A
// missing file is not an error; the defaults (plus env) are used.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return Parse(b, os.LookupEnv)
}

// Parse decodes b over Default() and applies env via lookup.
func Parse(b []byte, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if len(b) > 0 {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg, lookup)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	str := func(k string, dst *string) {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("SERVER_LISTEN_ADDRESS", &cfg.Server.Listen)
	str("DATABASE_URL", &cfg.Database.DSN)

	var driver string
	str("DATABASE_DRIVER", &driver)
	if driver != "" {
		cfg.Database.Driver = DatabaseDriver(driver)
	}

	var bucket, endpoint, region, key, secret string
	str("S3_BUCKET", &bucket)
	str("S3_ENDPOINT", &endpoint)
	str("S3_REGION", &region)
	str("AWS_ACCESS_KEY_ID", &key)
	str("AWS_SECRET_ACCESS_KEY", &secret)
	if bucket != "" {
		cfg.Storage.Type = StorageS3
		cfg.Storage.Bucket = bucket
	}
	if endpoint != "" || region != "" || key != "" || secret != "" {
		if cfg.Storage.S3 == nil {
			cfg.Storage.S3 = &S3Storage{UsePathStyle: true}
		}
		s3 := cfg.Storage.S3
		if endpoint != "" {
			s3.EndpointURL = endpoint
		}
		if region != "" {
			s3.Region = region
		}
		if key != "" {
			s3.AccessKeyID = key
		}
		if secret != "" {
			s3.SecretAccessKey = secret
		}
	}
	str("STORAGE_PUBLIC_BASE_URL", &cfg.Storage.PublicBaseURL)
}
