package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"pitlane.io/pitlane/internal/api/middleware"
	"pitlane.io/pitlane/internal/domain"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator reports field errors under their JSON names.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

var errEmptyBody = errors.New("empty body")

// bindJSON strictly decodes the body into dst and validates it.
// Unknown fields, trailing data and type mismatches are 400s.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := decodeJSON(c, dst); err != nil {
		if errors.Is(err, errEmptyBody) {
			return apperrors.ErrValidation("request body is required")
		}
		return err
	}
	return validateStruct(dst)
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := decodeJSON(c, dst); err != nil {
		if errors.Is(err, errEmptyBody) {
			return nil
		}
		return err
	}
	return validateStruct(dst)
}

func decodeJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeErr(err)
	}
	if dec.More() {
		return apperrors.ErrValidation("request body must hold a single JSON object")
	}
	return nil
}

func decodeErr(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return errEmptyBody
	case errors.As(err, &typeErr):
		return apperrors.ErrValidation("field %s has the wrong type", typeErr.Field).
			WithField(typeErr.Field, "type", "must be " + typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.ErrValidation("malformed JSON body")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperrors.ErrInvalidRequestField(name)
	default:
		return apperrors.ErrValidation("invalid request body: %v", err)
	}
}

func validateStruct(dst interface{}) error {
	err := structValidator().Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	fieldErrs := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, apperrors.FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return apperrors.ErrValidation("request validation failed").WithFieldErrors(fieldErrs)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid address"
	}
	return "is invalid"
}

// actor returns the authenticated caller, pushing a 401 when there is none.
func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c.Request.Context())
	if !ok {
		_ = c.Error(apperrors.Unauthorized(middleware.CodeUnauthorized, "not authenticated"))
		return domain.Actor{}, false
	}
	return a, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.ErrValidation("query parameter %s must be a boolean", name).
			WithField(name, "type", "must be true or false")
	}
	return v, nil
}

// parseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date (UTC midnight).
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.ErrValidation("%s must be an RFC 3339 timestamp or YYYY-MM-DD", field).
		WithField(field, "date", "must be an RFC 3339 timestamp or YYYY-MM-DD")
}
