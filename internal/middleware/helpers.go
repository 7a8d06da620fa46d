package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/apperror"
)

// RequestValidator adapts go-playground/validator to echo.Validator so
// handlers can call c.Validate on request DTOs tagged with `validate:"..."`.
type RequestValidator struct {
	v *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their JSON
// names, so messages match what the client sent.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator. Failures become 422 AppErrors.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewInternal(fmt.Errorf("validating request: %w", err))
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return apperror.NewValidation(strings.Join(msgs, "; "))
}

// describeFieldError renders a single validation failure for the client.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// BindAndValidate binds the request body into req and runs the registered
// validator on it. Malformed bodies are 400s; rule violations are 422s.
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	return c.Validate(req)
}

// statusFromError returns the HTTP status an error will be rendered with.
func statusFromError(err error) int {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Code
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	return http.StatusInternalServerError
}
