// Package useragent provides the external user agents a host can present the
// login flow with: the OS default browser for opening pages, and a loopback
// HTTP listener for receiving the redirect callback on desktop hosts without
// a custom URL scheme.
package useragent

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/cli/browser"

	dErrors "identitykit/pkg/domain-errors"
)

// Browser opens login pages in the OS default browser. Dismiss is a no-op:
// the host has no handle on an external browser tab once opened.
type Browser struct {
	logger *slog.Logger
	open   func(string) error
}

// NewBrowser returns a Browser using the platform launcher.
func NewBrowser(logger *slog.Logger) *Browser {
	return &Browser{
		logger: logger,
		open:   browser.OpenURL,
	}
}

func (b *Browser) Open(ctx context.Context, u *url.URL) error {
	b.logger.InfoContext(ctx, "opening system browser", "host", u.Host)
	if err := b.open(u.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStartFailed, "open system browser")
	}
	return nil
}

func (b *Browser) Dismiss(_ context.Context) {}
