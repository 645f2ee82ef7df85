package plist

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorAtOffsetAttachesContext(t *testing.T) {
	e := newError(ErrInvalidMagic, "bad magic").AtOffset(42)
	off, ok := e.Offset()
	require.True(t, ok)
	assert.Equal(t, int64(42), off)
	assert.Contains(t, e.Error(), "at offset 42")
}

func TestWrapIOErrorPreservesExistingPlistError(t *testing.T) {
	inner := newError(ErrInvalidMagic, "bad magic")
	wrapped := wrapIOError(inner)
	assert.Same(t, inner, wrapped)
}

func TestIoOrEOFClassifiesEOFAsUnexpected(t *testing.T) {
	e := ioOrEOF(errors.New("boom"))
	assert.True(t, e.IsIO())
	assert.False(t, e.IsEOF())

	e2 := ioOrEOF(nil)
	assert.Nil(t, e2)

	e3 := ioOrEOF(io.EOF)
	assert.True(t, e3.IsEOF())
	assert.False(t, e3.IsIO())
}

func TestErrorAsIOReturnsUnderlyingCause(t *testing.T) {
	cause := errors.New("disk on fire")
	e := wrapIOError(cause)
	got, ok := e.AsIO()
	require.True(t, ok)
	assert.Equal(t, cause, got)
}
