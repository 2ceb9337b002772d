// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package objectstore

import (
	"context"
	"fmt"
)

// Config holds the settings used to construct stores from table URLs.
type Config struct {
	S3    S3Config    `mapstructure:"s3"`
	Azure AzureConfig `mapstructure:"azure"`
	// LocalRoot is the directory "file://" URLs are resolved against.
	LocalRoot string `mapstructure:"local_root"`
}

// S3Config configures S3 and S3-compatible stores.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// RoleARN, when set, is assumed through STS on top of the base credentials.
	RoleARN         string `mapstructure:"role_arn"`
}

// AzureConfig configures Azure Blob Storage stores.
type AzureConfig struct {
	// ServiceURL is the account blob endpoint, e.g. https://account.blob.core.windows.net/
	ServiceURL string `mapstructure:"service_url"`
}

// DefaultConfig returns the default object store configuration.
func DefaultConfig() Config {
	return Config{
		LocalRoot: "/",
	}
}

// Open builds the store for u according to cfg and registers it in registry.
// An already registered store is returned as is.
func Open(ctx context.Context, registry *Registry, u URL, cfg Config) (Store, error) {
	if store, err := registry.Resolve(u); err == nil {
		return store, nil
	}

	var (
		store Store
		err   error
	)
	switch u.Scheme {
	case "file":
		store = NewLocalStore(cfg.LocalRoot)
	case "s3":
		store, err = NewS3Store(ctx, u.Host, cfg.S3)
	case "gs":
		store, err = NewS3Store(ctx, u.Host, cfg.S3, WithGCSCompat())
	case "azure", "az", "abfs":
		store, err = NewAzureStore(ctx, u.Host, cfg.Azure)
	default:
		return nil, fmt.Errorf("unsupported object store scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u, err)
	}
	registry.Register(u, store)
	return store, nil
}
