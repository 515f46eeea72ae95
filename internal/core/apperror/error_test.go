package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError(t *testing.T) {
	base := NewValidation("bad input")

	t.Run("direct", func(t *testing.T) {
		appErr, ok := AsAppError(base)
		require.True(t, ok)
		assert.Equal(t, CodeValidation, appErr.Code)
	})

	t.Run("wrapped", func(t *testing.T) {
		appErr, ok := AsAppError(fmt.Errorf("save: %w", base))
		require.True(t, ok)
		assert.Equal(t, CodeValidation, appErr.Code)
	})

	t.Run("plain error", func(t *testing.T) {
		appErr, ok := AsAppError(errors.New("boom"))
		assert.False(t, ok)
		assert.Nil(t, appErr)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(NewValidation("bad input")))
	assert.Equal(t, CodeValidation, CodeOf(fmt.Errorf("save: %w", NewValidation("bad input"))))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}
