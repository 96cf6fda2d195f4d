package useragent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	uadetect "github.com/mssola/useragent"
	"golang.org/x/sync/errgroup"

	"identitykit/internal/platform/httpserver"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/httputil"
)

// RedirectSink consumes a callback URL delivered by the listener. It reports
// whether the URL matched a pending flow, mirroring Service.HandleRedirect.
type RedirectSink func(ctx context.Context, u *url.URL) bool

// Loopback is a localhost HTTP listener for redirect callbacks, the desktop
// counterpart of a custom URL scheme. The provider redirects the browser to
// http://127.0.0.1:<port>/<path>?token=..., and the handler forwards the URL
// into the sink.
type Loopback struct {
	server      *http.Server
	group       *errgroup.Group
	logger      *slog.Logger
	redirectURL *url.URL
	sink        RedirectSink
}

// NewLoopback builds a listener on addr serving the path of redirectURL.
// The sink is invoked on the HTTP handler goroutine; hosts with an event loop
// should marshal onto it inside the sink.
func NewLoopback(addr string, redirectURL *url.URL, sink RedirectSink, logger *slog.Logger) *Loopback {
	l := &Loopback{
		group:       &errgroup.Group{},
		logger:      logger,
		redirectURL: redirectURL,
		sink:        sink,
	}

	router := chi.NewRouter()
	router.Get(redirectURL.Path, l.handleCallback)
	l.server = httpserver.New(addr, router)
	return l
}

// Start begins serving in the background. Errors surface from Close.
func (l *Loopback) Start() {
	l.logger.Info("loopback callback listener starting", "addr", l.server.Addr)
	l.group.Go(func() error {
		if err := l.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// Close shuts the listener down and returns any serve error.
func (l *Loopback) Close(ctx context.Context) error {
	if err := l.server.Shutdown(ctx); err != nil {
		return err
	}
	return l.group.Wait()
}

func (l *Loopback) handleCallback(w http.ResponseWriter, r *http.Request) {
	// Rebuild the absolute URL the provider redirected to; the request line
	// only carries path and query.
	callback := *l.redirectURL
	callback.RawQuery = r.URL.RawQuery

	ua := uadetect.New(r.UserAgent())
	browserName, browserVersion := ua.Browser()
	consumed := l.sink(r.Context(), &callback)

	l.logger.InfoContext(r.Context(), "redirect callback received",
		"consumed", consumed,
		"browser", browserName,
		"browser_version", browserVersion,
		"os", ua.OS(),
	)

	if !consumed {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no login flow in progress"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(callbackPage))
}

const callbackPage = `<!DOCTYPE html>
<html>
<head><title>Login complete</title></head>
<body>
<p>Login complete. You can close this window and return to the application.</p>
</body>
</html>
`
