package rfs

import (
	"context"
	"net/http"
)

// Request is the currently active inbound request.
type Request interface {
	// URI returns the full request URI, including scheme, host and query.
	URI() string
	// RequestURI returns the path portion of the URI, as sent by the client.
	RequestURI() string
}

// RequestProvider looks up the currently active request.
type RequestProvider interface {
	// CurrentRequest returns the active request or nil.
	CurrentRequest(ctx context.Context) Request
}

// RequestProviderFunc is an adapter to allow the use of ordinary functions as providers.
type RequestProviderFunc func(context.Context) Request

// CurrentRequest implements RequestProvider.
func (f RequestProviderFunc) CurrentRequest(ctx context.Context) Request {
	return f(ctx)
}

type requestKey struct{}

// WithRequest returns a copy of ctx carrying req.
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request stored in ctx, if any.
func RequestFromContext(ctx context.Context) Request {
	if ctx == nil {
		return nil
	}
	req, _ := ctx.Value(requestKey{}).(Request)
	return req
}

// ContextProvider is a RequestProvider which reads requests stored by WithRequest or Middleware.
var ContextProvider RequestProvider = RequestProviderFunc(RequestFromContext)

// Middleware stores each inbound request in its context, so that it can be
// found by ContextProvider.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequest(r.Context(), HTTPRequest{Request: r})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HTTPRequest adapts a *http.Request.
type HTTPRequest struct {
	*http.Request
}

// URI implements Request.
func (r HTTPRequest) URI() string {
	scheme := r.URL.Scheme
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return scheme + "://" + host + r.RequestURI()
}

// RequestURI implements Request.
func (r HTTPRequest) RequestURI() string {
	if r.Request.RequestURI != "" {
		return r.Request.RequestURI
	}
	return r.URL.RequestURI()
}
