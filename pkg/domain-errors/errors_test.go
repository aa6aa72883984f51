package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "already exists")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
	assert.False(t, HasCode(nil, CodeConflict))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := Wrap(cause, CodeConflict, "email already registered")

	assert.True(t, HasCode(err, CodeConflict))
	assert.ErrorIs(t, err, cause)
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	inner := New(CodeNotFound, "user not found")
	outer := fmt.Errorf("loading caller: %w", inner)
	assert.True(t, HasCode(outer, CodeNotFound))
}

func TestWithField(t *testing.T) {
	err := New(CodeValidation, "a valid email is required").WithField("email")
	require.Equal(t, "email", err.Field)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "validation")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(New(CodeForbidden, "nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("mystery")))
}
