package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupError_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind LookupErrorKind
		want string
	}{
		{LookupNotFound, `No definition found for "zzzxx". Please check the spelling.`},
		{LookupTimeout, MsgTimeout},
		{LookupHTTPError, MsgUnavailable},
		{LookupMalformed, MsgUnavailable},
		{LookupInvalidWord, MsgInvalidWord},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			err := NewLookupError("zzzxx", tt.kind, nil)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestLookupError_ErrorIncludesDiagnostics(t *testing.T) {
	t.Parallel()

	err := NewLookupError("cat", LookupHTTPError, errors.New("502 Bad Gateway"))
	err.Status = 502

	got := err.Error()
	assert.True(t, strings.Contains(got, `"cat"`), got)
	assert.True(t, strings.Contains(got, "status 502"), got)
	assert.True(t, strings.Contains(got, "502 Bad Gateway"), got)
	assert.NotContains(t, err.Message, "502")
}

func TestLookupError_IsSentinels(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("wrapped: %w", NewLookupError("zzzxx", LookupNotFound, nil))
	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.False(t, errors.Is(notFound, ErrValidation))

	invalid := NewLookupError("a", LookupInvalidWord, nil)
	assert.True(t, errors.Is(invalid, ErrValidation))

	timeout := NewLookupError("cat", LookupTimeout, context.DeadlineExceeded)
	assert.True(t, errors.Is(timeout, context.DeadlineExceeded))
}

func TestAsLookupError(t *testing.T) {
	t.Parallel()

	le, ok := AsLookupError(fmt.Errorf("x: %w", NewLookupError("cat", LookupMalformed, nil)))
	require.True(t, ok)
	assert.Equal(t, LookupMalformed, le.Kind)

	_, ok = AsLookupError(errors.New("plain"))
	assert.False(t, ok)
}

func TestDefinition_Clone(t *testing.T) {
	t.Parallel()

	d := Definition{Word: "cat", Synonyms: []string{"feline"}}
	c := d.Clone()
	c.Synonyms[0] = "kitty"

	assert.Equal(t, "feline", d.Synonyms[0])
}
