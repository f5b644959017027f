package rfs

import (
	"context"
	"strings"
)

// RequestResolver resolves paths against the base URL of the current request.
//
// The base URL is obtained by removing the request's RequestURI from its full
// URI as a literal substring, then stripping trailing slashes. When there is
// no current request, paths resolve to "/" + path.
type RequestResolver struct {
	provider RequestProvider
}

// NewRequestResolver inits a resolver. It falls back on ContextProvider when
// provider is nil.
func NewRequestResolver(provider RequestProvider) *RequestResolver {
	if provider == nil {
		provider = ContextProvider
	}
	return &RequestResolver{provider: provider}
}

// Resolve implements Resolver.
func (r *RequestResolver) Resolve(ctx context.Context, path string) string {
	return joinURI(r.BaseURL(ctx), path)
}

// BaseURL returns the base URL of the request active in ctx.
func (r *RequestResolver) BaseURL(ctx context.Context) string {
	req := r.provider.CurrentRequest(ctx)
	if req == nil {
		return ""
	}
	return strings.TrimRight(strings.ReplaceAll(req.URI(), req.RequestURI(), ""), "/")
}
