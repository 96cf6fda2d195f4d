package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeCanceled, "user backed out")
		assert.True(t, HasCode(err, CodeCanceled))
		assert.False(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches wrapped code", func(t *testing.T) {
		cause := New(CodeUnauthorized, "token rejected")
		err := Wrap(cause, CodeInternal, "account refresh failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeTransport, "connection reset"))
		assert.True(t, HasCode(err, CodeTransport))
	})

	t.Run("plain error carries no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("preserves cause for errors.Is", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Wrap(cause, CodeTransport, "account fetch")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeStartFailed, CodeOf(New(CodeStartFailed, "no browser")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}
