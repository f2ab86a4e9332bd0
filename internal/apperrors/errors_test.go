package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfTagged(t *testing.T) {
	err := New(KindForbidden, "not a party to this request")
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindStoreFailure, "insert failed", cause)

	wrapped := fmt.Errorf("request friendship: %w", err)
	assert.Equal(t, KindStoreFailure, KindOf(wrapped))
	require.ErrorIs(t, wrapped, err)
	assert.Equal(t, cause, errors.Unwrap(errors.Unwrap(wrapped)))
}

func TestKindOfUntaggedDefaultsToStoreFailure(t *testing.T) {
	assert.Equal(t, KindStoreFailure, KindOf(errors.New("boom")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "cannot send request to yourself", MessageOf(New(KindValidation, "cannot send request to yourself")))
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: whatever")))
}
