// Package pages holds the html pages of the web interface as templ components.
package pages

import (
	"context"
	"strings"
)

type basePathKey struct{}

// WithBasePath stores the path prefix the site is served under. Page links
// are built on it.
func WithBasePath(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, basePathKey{}, strings.TrimRight(base, "/"))
}

// BasePath is the prefix set by WithBasePath, without a trailing slash. It is
// empty when the site is served from the root.
func BasePath(ctx context.Context) string {
	base, _ := ctx.Value(basePathKey{}).(string)
	return base
}

func link(ctx context.Context, p string) string {
	return BasePath(ctx) + p
}
