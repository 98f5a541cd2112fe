package errors

import (
	"fmt"
	"github.com/stretchr/testify/require"
	"log/slog"
	"slices"
	"testing"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	var annotated *AnnotatedError
	require.True(t, As(err, &annotated))

	// Ensure log values are coming through.
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.NotEqual(t, -1, sourceIdx)
	require.Contains(t, group[sourceIdx].Value.String(), "annotatederror_test.go")
}

func TestWrap(t *testing.T) {
	sentinel := NewSentinel("sentinel")
	require.NotErrorIs(t, New("sentinel"), sentinel)

	wrapped := Wrap(sentinel, "outer", slog.Int("attempt", 2))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "outer: sentinel", wrapped.Error())

	twice := Wrap(fmt.Errorf("middle: %w", wrapped), "top")
	require.ErrorIs(t, twice, sentinel)
	require.Equal(t, "top: middle: outer: sentinel", twice.Error())

	require.NoError(t, Wrap(nil, "nothing to wrap"))
}

func TestSlogError(t *testing.T) {
	inner := New("inner", slog.String("topic", "go"))
	outer := Wrap(inner, "outer", slog.String("provider", "GPT-4"))

	attr := SlogError(outer)
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("msg", "outer: inner"))
	require.Contains(t, group, slog.String("topic", "go"))
	require.Contains(t, group, slog.String("provider", "GPT-4"))

	plain := SlogError(NewSentinel("plain")).Value.Group()
	require.Equal(t, []slog.Attr{slog.String("msg", "plain")}, plain)
}
