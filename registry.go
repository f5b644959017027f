package rfs

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// Factory constructs a bucket from a URL.
type Factory func(context.Context, *url.URL) (Bucket, error)

var (
	registry     = map[string]Factory{}
	registryLock sync.Mutex
)

// Register registers a new protocol with a factory. Scheme comes without "://" suffix.
//
// It panics, if a factory for given scheme is already registered.
// Registration is meant to be done before any bucket operations, like in `init` functions:
//
//	func init() {
//	  rfs.Register("my-scheme", myFactory)
//	}
func Register(scheme string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, exists := registry[scheme]; exists {
		panic("rfs: protocol " + scheme + " already registered")
	}
	registry[scheme] = factory
}

// Connect opens a bucket from a URL string.
func Connect(ctx context.Context, rawURL string) (Bucket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("rfs: failed to parse URL %q: %w", rawURL, err)
	}
	return OpenURL(ctx, u)
}

// OpenURL opens a bucket from a parsed URL.
func OpenURL(ctx context.Context, u *url.URL) (Bucket, error) {
	registryLock.Lock()
	factory, ok := registry[u.Scheme]
	registryLock.Unlock()
	if !ok {
		return nil, fmt.Errorf("rfs: unknown URL scheme %q", u.Scheme)
	}

	return factory(ctx, u)
}
