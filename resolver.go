package rfs

import (
	"context"
	"strings"
)

// DefaultPrefix is the default prefix of PrefixResolver.
const DefaultPrefix = "/storage"

// Resolver resolves object paths to URIs.
//
// Implementations must not fail; missing context must degrade to a defined
// fallback.
type Resolver interface {
	// Resolve resolves an object path to an URI.
	Resolve(ctx context.Context, path string) string
}

// ResolverFunc is an adapter to allow the use of ordinary functions as resolvers.
type ResolverFunc func(context.Context, string) string

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, path string) string {
	return f(ctx, path)
}

// PrefixResolver resolves paths by joining them to a static prefix.
//
// An empty path resolves to the prefix followed by a single trailing slash.
type PrefixResolver struct {
	prefix string
}

// NewPrefixResolver inits a resolver for a prefix.
// Trailing slashes are stripped from the prefix.
func NewPrefixResolver(prefix string) *PrefixResolver {
	return &PrefixResolver{prefix: strings.TrimRight(prefix, "/")}
}

// Prefix returns the normalised prefix.
func (r *PrefixResolver) Prefix() string {
	return r.prefix
}

// Resolve implements Resolver.
func (r *PrefixResolver) Resolve(_ context.Context, path string) string {
	return joinURI(r.prefix, path)
}

func joinURI(base, path string) string {
	return base + "/" + strings.TrimLeft(path, "/")
}
