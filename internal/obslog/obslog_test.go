package obslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopDoesNotPanic(t *testing.T) {
	l := Noop()
	l.Debug("hello", String("k", "v"))
	l.Info("hello", Int("n", 1))
	l.Warn("hello", Bool("b", true))
	l.Error("hello", Error(assert.AnError))
	l.Sync()
}

func TestWithReturnsChildLogger(t *testing.T) {
	l := Noop()
	child := l.With(String("component", "test"))
	assert.NotSame(t, l, child)
	child.Info("from child")
}

func TestNewVerboseBuildsWithoutError(t *testing.T) {
	l, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Sync()
}
