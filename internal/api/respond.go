package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const (
	// UserIDHeader carries the caller's user id.
	UserIDHeader    = "X-Sharer-User-Id"
	RequestIDHeader = "X-Request-ID"
)

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotAvailable),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnsupportedState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UserID reads the caller id from the X-Sharer-User-Id header.
func UserID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("%w: header %s is required", domain.ErrValidation, UserIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: header %s must be a positive integer", domain.ErrValidation, UserIDHeader)
	}
	return id, nil
}

// PathID parses the {name} path segment as an id.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrValidation, name, r.PathValue(name))
	}
	return id, nil
}

// PageFromQuery reads from/size, falling back to from=0 and defaultSize.
func PageFromQuery(r *http.Request, defaultSize int) (models.Page, error) {
	q := r.URL.Query()
	from, size := 0, defaultSize
	if raw := q.Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.Page{}, fmt.Errorf("%w: from must be an integer", domain.ErrValidation)
		}
		from = v
	}
	if raw := q.Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.Page{}, fmt.Errorf("%w: size must be an integer", domain.ErrValidation)
		}
		size = v
	}
	return domain.NewPage(from, size)
}

// DecodeJSON decodes a request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}
