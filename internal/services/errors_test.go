package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(ErrInvalidNumbers))
	assert.Equal(t, KindTiming, KindOf(fmt.Errorf("claim: %w", ErrAlreadyClaimed)))
	assert.Equal(t, KindDependency, KindOf(wrap(ErrPaymentFailed, "ticket %d", 7)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapKeepsSentinel(t *testing.T) {
	err := wrap(ErrDayNotDrawn, "day %d", 3)
	assert.ErrorIs(t, err, ErrDayNotDrawn)
	assert.Contains(t, err.Error(), "day 3")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrRequestPending))
	assert.True(t, Retryable(ErrRandomnessRequestFailed))
	assert.False(t, Retryable(ErrNotOwner))
	assert.False(t, Retryable(ErrInvalidSetting))
}
