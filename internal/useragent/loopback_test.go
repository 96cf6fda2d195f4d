package useragent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"identitykit/internal/platform/logger"
)

type LoopbackSuite struct {
	suite.Suite
	redirectURL *url.URL
	delivered   []*url.URL
	consumed    bool
	loopback    *Loopback
}

func TestLoopbackSuite(t *testing.T) {
	suite.Run(t, new(LoopbackSuite))
}

func (s *LoopbackSuite) SetupTest() {
	u, err := url.Parse("http://127.0.0.1:8422/callback")
	s.Require().NoError(err)
	s.redirectURL = u
	s.delivered = nil
	s.consumed = true

	sink := func(_ context.Context, u *url.URL) bool {
		s.delivered = append(s.delivered, u)
		return s.consumed
	}
	s.loopback = NewLoopback("127.0.0.1:0", s.redirectURL, sink, logger.Discard())
}

func (s *LoopbackSuite) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36")
	s.loopback.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (s *LoopbackSuite) TestHandleCallback() {
	s.Run("rebuilds the absolute callback URL with the query intact", func() {
		s.SetupTest()
		rec := s.get("/callback?token=XYZ")

		s.Equal(http.StatusOK, rec.Code)
		s.Require().Len(s.delivered, 1)
		s.Equal("http://127.0.0.1:8422/callback?token=XYZ", s.delivered[0].String())
		s.Contains(rec.Body.String(), "close this window")
	})

	s.Run("rejects the callback when no flow consumes the URL", func() {
		s.SetupTest()
		s.consumed = false
		rec := s.get("/callback?token=XYZ")

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "bad_request")
		s.Len(s.delivered, 1)
	})

	s.Run("unknown paths are not delivered", func() {
		s.SetupTest()
		rec := s.get("/other?token=XYZ")

		s.Equal(http.StatusNotFound, rec.Code)
		s.Empty(s.delivered)
	})
}

func TestBrowserOpen(t *testing.T) {
	t.Run("wraps launcher failures as start failures", func(t *testing.T) {
		b := NewBrowser(logger.Discard())
		b.open = func(string) error { return errors.New("no display") }

		u, _ := url.Parse("https://id.example.test/login")
		if err := b.Open(context.Background(), u); err == nil {
			t.Fatal("expected error when the launcher fails")
		}
	})

	t.Run("passes the full URL to the launcher", func(t *testing.T) {
		var opened string
		b := NewBrowser(logger.Discard())
		b.open = func(raw string) error {
			opened = raw
			return nil
		}

		u, _ := url.Parse("https://id.example.test/login?redirect=myapp%3A%2F%2Fcallback")
		if err := b.Open(context.Background(), u); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opened != u.String() {
			t.Fatalf("opened %q, want %q", opened, u.String())
		}
	})
}
