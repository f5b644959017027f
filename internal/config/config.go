// Package config loads the server configuration from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/bsm/rfs"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	// storage backends
	_ "github.com/bsm/rfs/rfsfs"
	_ "github.com/bsm/rfs/rfsgs"
	_ "github.com/bsm/rfs/rfsminio"
	_ "github.com/bsm/rfs/rfss3"
)

// Resolver kinds.
const (
	ResolverPrefix  = "prefix"
	ResolverRequest = "request"
)

// Config holds the runtime configuration.
type Config struct {
	Addr         string   `env:"RFS_ADDR"          envDefault:":8080"`
	StorageURL   string   `env:"RFS_STORAGE_URL"   envDefault:"file://storage"`
	Resolver     string   `env:"RFS_RESOLVER"      envDefault:"prefix"`
	URLPrefix    string   `env:"RFS_URL_PREFIX"    envDefault:"/storage"`
	Visibility   string   `env:"RFS_VISIBILITY"    envDefault:"public"`
	AllowOrigins []string `env:"RFS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional dotenv file and parses the environment.
// Files which do not exist are skipped.
func Load(files ...string) (*Config, error) {
	for _, name := range files {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the config.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("RFS_ADDR is required")
	}
	if c.StorageURL == "" {
		return fmt.Errorf("RFS_STORAGE_URL is required")
	}
	if !strings.HasPrefix(c.URLPrefix, "/") {
		return fmt.Errorf("RFS_URL_PREFIX must start with a slash, got %q", c.URLPrefix)
	}
	if !rfs.Visibility(c.Visibility).IsValid() {
		return fmt.Errorf("RFS_VISIBILITY %q is not supported", c.Visibility)
	}

	switch c.Resolver {
	case ResolverPrefix, ResolverRequest:
	default:
		return fmt.Errorf("RFS_RESOLVER %q is not supported", c.Resolver)
	}
	return nil
}

// NewResolver returns the configured resolver.
func (c *Config) NewResolver() rfs.Resolver {
	if c.Resolver == ResolverRequest {
		return rfs.NewRequestResolver(nil)
	}
	return rfs.NewPrefixResolver(c.URLPrefix)
}

// Open connects the storage bucket and wraps it as a resolvable file system.
func (c *Config) Open(ctx context.Context) (*rfs.ResolvableFS, error) {
	bucket, err := rfs.Connect(ctx, c.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	store := rfs.NewFilesystem(bucket, rfs.WithVisibility(rfs.Visibility(c.Visibility)))
	if err := store.AddPlugin(rfs.ListPaths{}); err != nil {
		_ = store.Close()
		return nil, err
	}
	return rfs.New(store, c.NewResolver()), nil
}
