package triage

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"meditriage/internal/apperror"
)

var sessionIDPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

const sessionPrefix = "triage_"

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	if err := v.RegisterValidation("agegroup", func(fl validator.FieldLevel) bool {
		return slices.Contains(AgeGroups, fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register agegroup validation: %v", err))
	}
	return v
}

// ValidateRequest checks the transport-level invariants the engine relies on.
func ValidateRequest(v *validator.Validate, req Request) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Validation(err.Error())
	}
	details := make([]apperror.Detail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperror.Detail{
			Field:   fieldPath(fe),
			Message: validationMessage(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return apperror.Validation(details[0].Message, details...)
}

// NewSessionID returns the server-issued id that keys a stored assessment.
func NewSessionID() string {
	return sessionPrefix + uuid.NewString()
}

// IsSessionID reports whether id has the canonical form NewSessionID
// produces.
func IsSessionID(id string) bool {
	rest, ok := strings.CutPrefix(id, sessionPrefix)
	if !ok || len(rest) != 36 {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// SanitizeSessionID keeps letters, digits, '_' and '-', at most 100 chars.
func SanitizeSessionID(id string) string {
	id = sessionIDPattern.ReplaceAllString(id, "")
	if len(id) > 100 {
		id = id[:100]
	}
	return id
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		if fe.Field() == "symptoms" {
			return "At least one symptom is required"
		}
		return field + " is required"
	case "notblank":
		return field + " cannot be empty"
	case "min":
		if fe.Field() == "symptoms" {
			return "At least one symptom is required"
		}
		return field + " must contain at least " + fe.Param() + " item(s)"
	case "max":
		if fe.Field() == "symptoms" {
			return "Maximum " + fe.Param() + " symptoms allowed"
		}
		return field + " is too long (max " + fe.Param() + " characters)"
	case "agegroup":
		return field + " must be one of: " + strings.Join(AgeGroups, ", ")
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return field + " is invalid"
	}
}
