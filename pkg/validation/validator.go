package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate is the global validator instance
var Validate *validator.Validate

// dateLayouts are the date encodings accepted from the fleet backend and API clients.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("iso_date", validateISODate)
	_ = Validate.RegisterValidation("trip_status", validateTripStatus)
	_ = Validate.RegisterValidation("maintenance_category", validateMaintenanceCategory)
	_ = Validate.RegisterValidation("trigger_type", validateTriggerType)
	_ = Validate.RegisterValidation("object_id", validateObjectID)
}

// ValidationError carries field-level validation failures
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator errors into a ValidationError
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(strings.ToLower(fe.Field()), describe(fe))
	}
	return ve
}

// Error implements the error interface with a deterministic field order
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AddError records a failure for a field
func (e *ValidationError) AddError(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	e.Errors[field] = message
}

// HasErrors reports whether any failure was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ParseDate parses any accepted date encoding
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 || layout == time.RFC3339Nano {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, time.Local)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is not a valid " + strings.ReplaceAll(fe.Tag(), "_", " ")
	}
}

func validateISODate(fl validator.FieldLevel) bool {
	_, ok := ParseDate(fl.Field().String())
	return ok
}

func validateTripStatus(fl validator.FieldLevel) bool {
	return contains([]string{"en cours", "terminé"}, fl.Field().String())
}

func validateMaintenanceCategory(fl validator.FieldLevel) bool {
	return contains([]string{"Vidange", "Révision", "Freins", "Pneus", "Autre"}, fl.Field().String())
}

func validateTriggerType(fl validator.FieldLevel) bool {
	return contains([]string{"date", "kilometrage"}, fl.Field().String())
}

// validateObjectID accepts 24-hex-character backend identifiers
func validateObjectID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) != 24 {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if strings.ToLower(s) == item {
			return true
		}
	}
	return false
}
