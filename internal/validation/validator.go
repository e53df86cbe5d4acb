package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// Custom tags for the ticket enums.
const (
	TagSeverity   = "ticket_severity"
	TagTicketType = "ticket_type"
	TagStatus     = "ticket_status"
	TagNotBlank   = "notblank"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the process-wide validator with the ticket tags registered.
func GetValidator() *validator.Validate {
	once.Do(initValidator)
	return validate
}

func initValidator() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	mustRegister(TagSeverity, func(fl validator.FieldLevel) bool {
		return domain.Severity(fl.Field().String()).Valid()
	})
	mustRegister(TagTicketType, func(fl validator.FieldLevel) bool {
		return domain.TicketType(fl.Field().String()).Valid()
	})
	mustRegister(TagStatus, func(fl validator.FieldLevel) bool {
		return domain.TicketStatus(fl.Field().String()).Valid()
	})
	mustRegister(TagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}

// Struct validates s and returns field messages keyed by field name, or nil.
func Struct(s any) map[string]string {
	return fieldMessages(GetValidator().Struct(s), "")
}

// Var validates a single value against tag and returns the message for field, if any.
func Var(field string, value any, tag string) string {
	msgs := fieldMessages(GetValidator().Var(value, tag), field)
	return msgs[field]
}

func fieldMessages(err error, field string) map[string]string {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		name := field
		if name == "" {
			name = lowerFirst(e.Field())
		}
		out[name] = prettyError(name, e)
	}
	return out
}

func prettyError(name string, e validator.FieldError) string {
	switch e.Tag() {
	case "required", TagNotBlank:
		return name + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be greater than or equal to %s", name, e.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", name, e.Param())
	case "max":
		return fmt.Sprintf("%s must be less than or equal to %s", name, e.Param())
	case TagSeverity:
		return fmt.Sprintf("%s must be one of %s", name, joinValues(domain.Severities))
	case TagTicketType:
		return fmt.Sprintf("%s must be one of %s", name, joinValues(domain.TicketTypes))
	case TagStatus:
		return fmt.Sprintf("%s must be one of %s", name, joinValues(domain.TicketStatuses))
	default:
		return e.Error()
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
