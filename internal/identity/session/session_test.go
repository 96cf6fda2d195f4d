package session

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"identitykit/internal/identity/models"
	dErrors "identitykit/pkg/domain-errors"
)

type fakeAgent struct {
	openErr    error
	opened     []*url.URL
	dismissals int
}

func (a *fakeAgent) Open(_ context.Context, u *url.URL) error {
	if a.openErr != nil {
		return a.openErr
	}
	a.opened = append(a.opened, u)
	return nil
}

func (a *fakeAgent) Dismiss(_ context.Context) {
	a.dismissals++
}

type recordingDelegate struct {
	succeeded int
	cancelled int
	failed    int
	token     string
	err       error
}

func (d *recordingDelegate) AuthenticationSucceeded(_ context.Context, _ *models.AuthenticationRequest, token string) {
	d.succeeded++
	d.token = token
}

func (d *recordingDelegate) AuthenticationCancelled(_ context.Context, _ *models.AuthenticationRequest) {
	d.cancelled++
}

func (d *recordingDelegate) AuthenticationFailed(_ context.Context, _ *models.AuthenticationRequest, err error) {
	d.failed++
	d.err = err
}

func (d *recordingDelegate) resolutions() int {
	return d.succeeded + d.cancelled + d.failed
}

type SessionSuite struct {
	suite.Suite
	agent    *fakeAgent
	delegate *recordingDelegate
	session  *Session
	request  *models.AuthenticationRequest
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.agent = &fakeAgent{}
	s.delegate = &recordingDelegate{}
	s.session = New(s.agent, nil)
	s.request = s.makeRequest()
}

func (s *SessionSuite) makeRequest() *models.AuthenticationRequest {
	login, err := url.Parse("https://id.example.test/login")
	s.Require().NoError(err)
	redirectURL, err := url.Parse("myapp://callback")
	s.Require().NoError(err)
	request, err := models.NewAuthenticationRequest(login, redirectURL, "a@b.com")
	s.Require().NoError(err)
	return request
}

func (s *SessionSuite) present() {
	s.Require().NoError(s.session.Present(context.Background(), s.request, s.delegate))
	s.Require().Equal(StatePresenting, s.session.State())
}

func callback(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func (s *SessionSuite) TestPresent() {
	s.Run("opens the target URL and transitions to presenting", func() {
		s.SetupTest()
		s.present()
		s.Require().Len(s.agent.opened, 1)
		s.Equal("a@b.com", s.agent.opened[0].Query().Get("email"))
		s.Equal(s.request, s.session.Request())
	})

	s.Run("open failure keeps the session idle", func() {
		s.SetupTest()
		s.agent.openErr = errors.New("no browser available")

		err := s.session.Present(context.Background(), s.request, s.delegate)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStartFailed))
		s.Equal(StateIdle, s.session.State())
		s.Zero(s.delegate.resolutions())
	})

	s.Run("presenting twice is rejected", func() {
		s.SetupTest()
		s.present()
		err := s.session.Present(context.Background(), s.makeRequest(), s.delegate)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *SessionSuite) TestResume() {
	s.Run("matching URL resolves success with the extracted token", func() {
		s.SetupTest()
		s.present()

		consumed := s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?token=XYZ"))

		s.True(consumed)
		s.Equal(StateResolved, s.session.State())
		s.Equal(OutcomeSuccess, s.session.Outcome())
		s.Equal("XYZ", s.delegate.token)
		s.Equal(1, s.delegate.resolutions())
		s.Equal(1, s.agent.dismissals)
		s.Nil(s.session.Request())
	})

	s.Run("wrong scheme leaves the session presenting", func() {
		s.SetupTest()
		s.present()

		consumed := s.session.Resume(context.Background(), callback(s.T(), "https://other.test/callback?token=XYZ"))

		s.False(consumed)
		s.Equal(StatePresenting, s.session.State())
		s.Zero(s.delegate.resolutions())
		s.Zero(s.agent.dismissals)
	})

	s.Run("matching URL without token resolves failed with invalid data", func() {
		s.SetupTest()
		s.present()

		consumed := s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?error=denied"))

		s.True(consumed)
		s.Equal(OutcomeFailed, s.session.Outcome())
		s.Equal(1, s.delegate.failed)
		s.True(dErrors.HasCode(s.delegate.err, dErrors.CodeInvalidData))
	})

	s.Run("resume while idle is a no-op", func() {
		s.SetupTest()
		s.False(s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?token=XYZ")))
	})
}

func (s *SessionSuite) TestCancel() {
	s.Run("cancel while presenting resolves cancelled", func() {
		s.SetupTest()
		s.present()

		s.session.Cancel(context.Background())

		s.Equal(OutcomeCancelled, s.session.Outcome())
		s.Equal(1, s.delegate.cancelled)
		s.Equal(1, s.agent.dismissals)
	})

	s.Run("cancel while idle is a no-op", func() {
		s.SetupTest()
		s.session.Cancel(context.Background())
		s.Equal(StateIdle, s.session.State())
		s.Zero(s.delegate.resolutions())
	})
}

func (s *SessionSuite) TestFail() {
	s.SetupTest()
	s.present()

	cause := errors.New("web view load failed")
	s.session.Fail(context.Background(), cause)

	s.Equal(OutcomeFailed, s.session.Outcome())
	s.Equal(1, s.delegate.failed)
	s.ErrorIs(s.delegate.err, cause)
}

// TestExactlyOnceResolution exercises the idempotence invariant: once
// resolved, every further resume/cancel/fail is a no-op and the delegate is
// never invoked a second time, in either race direction.
func (s *SessionSuite) TestExactlyOnceResolution() {
	s.Run("resume then late cancel and fail", func() {
		s.SetupTest()
		s.present()

		s.True(s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?token=XYZ")))
		s.session.Cancel(context.Background())
		s.session.Fail(context.Background(), errors.New("late failure"))
		s.False(s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?token=ABC")))

		s.Equal(OutcomeSuccess, s.session.Outcome())
		s.Equal(1, s.delegate.resolutions())
		s.Equal(1, s.agent.dismissals)
		s.Equal("XYZ", s.delegate.token)
	})

	s.Run("cancel then late resume", func() {
		s.SetupTest()
		s.present()

		s.session.Cancel(context.Background())
		s.False(s.session.Resume(context.Background(), callback(s.T(), "myapp://callback?token=XYZ")))

		s.Equal(OutcomeCancelled, s.session.Outcome())
		s.Equal(1, s.delegate.resolutions())
		s.Equal(1, s.agent.dismissals)
	})

	s.Run("repeated cancels collapse to one resolution", func() {
		s.SetupTest()
		s.present()

		s.session.Cancel(context.Background())
		s.session.Cancel(context.Background())
		s.session.Cancel(context.Background())

		s.Equal(1, s.delegate.cancelled)
		s.Equal(1, s.agent.dismissals)
	})
}
