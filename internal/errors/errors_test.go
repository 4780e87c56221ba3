package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	t.Run("code and message", func(t *testing.T) {
		err := NewValidationError(ErrCodeBaseSizeRange, "base size 101 is outside 1-100")
		assert.Equal(t, "[ERR_BASE_SIZE_RANGE] base size 101 is outside 1-100", err.Error())
	})

	t.Run("component and cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewPersistenceError(ErrCodeStorage, "save failed", cause).WithComponent("store")
		assert.Equal(t, "[ERR_STORAGE] component:store save failed: disk full", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("type fallback when message empty", func(t *testing.T) {
		assert.Equal(t, "[ERR_DESTROYED] lifecycle error", ErrDestroyed.Error())
	})
}

func TestError_Is(t *testing.T) {
	err := NewValidationError(ErrCodeBaseSizeRange, "too small")
	wrapped := fmt.Errorf("set base size: %w", err)

	assert.True(t, errors.Is(wrapped, ErrBaseSizeOutOfRange))
	assert.False(t, errors.Is(wrapped, ErrScaleOutOfRange))
	assert.False(t, errors.Is(wrapped, ErrUnknownPreset))
}

func TestError_Categories(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		validation  bool
		lookup      bool
		persistence bool
	}{
		{"validation", NewValidationError(ErrCodeScaleRange, "x"), true, false, false},
		{"lookup", NewLookupError(ErrCodeUnknownPreset, "x"), false, true, false},
		{"persistence", NewPersistenceError(ErrCodeCorruptState, "x", nil), false, false, true},
		{"plain", errors.New("x"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.lookup, IsLookup(tt.err))
			assert.Equal(t, tt.persistence, IsPersistence(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "y"))

	inner := NewLookupError(ErrCodeUnknownPreset, "missing").WithContext("name", "huge")
	outer := Wrap(inner, ErrorTypeInternal, ErrCodeInternalFailure, "apply failed")
	require.NotNil(t, outer)
	assert.Equal(t, "huge", outer.Context["name"])
	assert.True(t, errors.Is(outer, ErrUnknownPreset))
}

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	a := errors.New("a")
	b := errors.New("b")
	err := Combine(a, nil, b)
	require.Error(t, err)
	assert.Len(t, Flatten(err), 2)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}

func TestChainHelpers(t *testing.T) {
	root := errors.New("disk full")
	inner := NewPersistenceError(ErrCodeStorage, "save failed", root)
	outer := Wrap(inner, ErrorTypeConfig, ErrCodeConfigInvalid, "apply config")

	chain := Chain(outer)
	require.Len(t, chain, 3)
	assert.Same(t, outer, chain[0])
	assert.Equal(t, root, RootCause(outer))
	assert.Nil(t, RootCause(nil))

	assert.Equal(t, ErrCodeConfigInvalid, Code(outer))
	assert.Equal(t, "", Code(root))
	assert.True(t, HasCode(outer, ErrCodeStorage))
	assert.False(t, HasCode(outer, ErrCodeDestroyed))
}
