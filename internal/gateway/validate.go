package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"shareit/internal/api"
	"shareit/internal/domain"

	"github.com/go-playground/validator/v10"
)

type createUserDTO struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"required,email"`
}

type updateUserDTO struct {
	Name  *string `json:"name" validate:"omitnil,notblank"`
	Email *string `json:"email" validate:"omitnil,email"`
}

type createItemDTO struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitnil,gt=0"`
}

type updateItemDTO struct {
	Name        *string `json:"name" validate:"omitnil,notblank"`
	Description *string `json:"description" validate:"omitnil,notblank"`
	Available   *bool   `json:"available"`
}

type createBookingDTO struct {
	ItemID int64      `json:"itemId" validate:"required,gt=0"`
	Start  *time.Time `json:"start" validate:"required"`
	End    *time.Time `json:"end" validate:"required"`
}

type commentDTO struct {
	Text string `json:"text" validate:"notblank"`
}

type requestDTO struct {
	Description string `json:"description" validate:"notblank"`
}

// check validates one incoming request before it is forwarded.
type check func(r *http.Request, body []byte) error

type checker struct {
	validate *validator.Validate
	now      func() time.Time
}

func newChecker() *checker {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &checker{validate: v, now: time.Now}
}

// bodyOf decodes the JSON body into a fresh T and runs its struct tags.
func bodyOf[T any](c *checker) check {
	return func(_ *http.Request, body []byte) error {
		var dst T
		return c.decodeAndValidate(body, &dst)
	}
}

func (c *checker) decodeAndValidate(body []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	if err := c.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// createBooking also enforces the time window: start not in the past, end in
// the future and start strictly before end.
func (c *checker) createBooking() check {
	return func(_ *http.Request, body []byte) error {
		var dto createBookingDTO
		if err := c.decodeAndValidate(body, &dto); err != nil {
			return err
		}
		now := c.now()
		switch {
		case dto.Start.Before(now):
			return fmt.Errorf("%w: start must not be in the past", domain.ErrValidation)
		case !dto.End.After(now):
			return fmt.Errorf("%w: end must be in the future", domain.ErrValidation)
		case !dto.Start.Before(*dto.End):
			return fmt.Errorf("%w: start must be before end", domain.ErrValidation)
		}
		return nil
	}
}

func (c *checker) state(r *http.Request, _ []byte) error {
	_, err := domain.ParseBookingState(r.URL.Query().Get("state"))
	return err
}

func (c *checker) page(r *http.Request, _ []byte) error {
	_, err := api.PageFromQuery(r, 1)
	return err
}

func (c *checker) approval(r *http.Request, _ []byte) error {
	_, err := domain.ParseApproval(r.URL.Query().Get("approved"))
	return err
}

func pathID(name string) check {
	return func(r *http.Request, _ []byte) error {
		_, err := api.PathID(r, name)
		return err
	}
}

func all(checks ...check) check {
	return func(r *http.Request, body []byte) error {
		for _, ch := range checks {
			if err := ch(r, body); err != nil {
				return err
			}
		}
		return nil
	}
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}
