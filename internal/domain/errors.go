package domain

import (
	"errors"
	"fmt"
	"strings"

	"shareit/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAvailable     = errors.New("not available")
	ErrUnsupportedState = errors.New("unknown state")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyExists    = errors.New("already exists")
)

// ErrForbidden marks a caller without the relationship required to see or act
// on a resource. It wraps ErrNotFound, so callers that only know the coarse
// taxonomy report it as not found.
var ErrForbidden = fmt.Errorf("access denied: %w", ErrNotFound)

// ParseBookingState parses a state filter case-insensitively.
func ParseBookingState(raw string) (models.BookingState, error) {
	state, ok := models.LookupBookingState(raw)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedState, raw)
	}
	return state, nil
}

// NewPage validates from/size paging parameters.
func NewPage(from, size int) (models.Page, error) {
	if from < 0 {
		return models.Page{}, fmt.Errorf("%w: from must not be negative", ErrValidation)
	}
	if size <= 0 {
		return models.Page{}, fmt.Errorf("%w: size must be positive", ErrValidation)
	}
	return models.Page{From: from, Size: size}, nil
}

// ParseApproval reads the owner's decision: "true" or "false", in any case.
func ParseApproval(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: approved must be true or false", ErrValidation)
}
