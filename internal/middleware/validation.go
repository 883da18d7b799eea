package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "yeogiro/internal/errors"
	"yeogiro/pkg/contracts/domain"
)

// DefaultMaxBodyBytes bounds JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Validator decodes and validates request input. Every failure is a 400
// *apierrors.StatusError naming the offending field.
type Validator struct {
	validate    *validator.Validate
	maxBodySize int64
}

// NewValidator creates a validator that reports fields by their JSON name.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:    v,
		maxBodySize: DefaultMaxBodyBytes,
	}
}

// DecodeJSON decodes the body of r into dst and validates it.
func (v *Validator) DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apierrors.BadRequest("request body is required")
	}
	if r.ContentLength > v.maxBodySize {
		return apierrors.New(http.StatusRequestEntityTooLarge, "request body too large")
	}

	body := io.LimitReader(r.Body, v.maxBodySize)
	if err := render.DecodeJSON(body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierrors.BadRequest("request body is required")
		}
		return apierrors.WithCause(http.StatusBadRequest, "request body is not valid JSON", err)
	}
	return v.Struct(dst)
}

// Struct validates s against its validate tags.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.WithCause(http.StatusBadRequest, "invalid request", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return apierrors.WithCause(http.StatusBadRequest, strings.Join(msgs, "; "), err)
}

// fieldPath drops the top-level struct name from the namespace, leaving the
// JSON path of the field (origin.lat).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatValidationError(fe validator.FieldError) string {
	field := fieldPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "latitude":
		return fmt.Sprintf("%s must be a latitude between -90 and 90", field)
	case "longitude":
		return fmt.Sprintf("%s must be a longitude between -180 and 180", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// QueryInt reads an optional integer query parameter bounded by [min, max].
func QueryInt(r *http.Request, param string, min, max, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.BadRequest(fmt.Sprintf("%s must be a valid integer", param))
	}
	if n < min || n > max {
		return 0, apierrors.BadRequest(fmt.Sprintf("%s must be between %d and %d", param, min, max))
	}
	return n, nil
}

// QueryFloat reads an optional non-negative float query parameter.
func QueryFloat(r *http.Request, param string, defaultValue float64) (float64, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, apierrors.BadRequest(fmt.Sprintf("%s must be a non-negative number", param))
	}
	return f, nil
}

// QueryPoint reads the required lat and lng query parameters.
func (v *Validator) QueryPoint(r *http.Request) (domain.Point, error) {
	q := r.URL.Query()
	var p domain.Point
	for _, c := range []struct {
		name string
		dst  *float64
	}{{"lat", &p.Lat}, {"lng", &p.Lng}} {
		raw := q.Get(c.name)
		if raw == "" {
			return p, apierrors.BadRequest(c.name + " is required")
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, apierrors.BadRequest(c.name + " must be a number")
		}
		*c.dst = f
	}
	return p, v.Struct(p)
}
