package domain

import (
	"errors"
	"testing"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrForbiddenIsNotFound(t *testing.T) {
	err := errors.Join(ErrForbidden)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, ErrNotFound, ErrForbidden)
}

func TestParseBookingState(t *testing.T) {
	state, err := ParseBookingState("future")
	require.NoError(t, err)
	assert.Equal(t, models.StateFuture, state)

	_, err = ParseBookingState("BOGUS")
	require.ErrorIs(t, err, ErrUnsupportedState)
	assert.Equal(t, "unknown state: BOGUS", err.Error())
}

func TestNewPage(t *testing.T) {
	page, err := NewPage(20, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Offset())

	_, err = NewPage(-1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPage(0, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseApproval(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "TRUE": true, " False ": false, "false": false} {
		got, err := ParseApproval(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "1", "t", "yes", "maybe"} {
		_, err := ParseApproval(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}
