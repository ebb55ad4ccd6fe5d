package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"bloom/internal/apperrors"
	"bloom/internal/models"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// usernameProblem returns a client-facing reason why username is not an
// acceptable handle, or "" if it is.
func usernameProblem(username string) string {
	switch {
	case len(username) < 3:
		return "Username must be at least 3 characters long"
	case len(username) > 20:
		return "Username must be at most 20 characters long"
	case !usernamePattern.MatchString(username):
		return "Username can only contain letters, numbers, underscores and hyphens"
	}
	return ""
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameProblem(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("chain", func(fl validator.FieldLevel) bool {
		return models.Chain(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("activity", func(fl validator.FieldLevel) bool {
		return models.ActivityType(fl.Field().String()).Valid()
	})
	return v
}

// fieldPath turns a validator namespace into a json path, dropping the root
// type and embedded struct names.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	var out []string
	for _, p := range parts[1:] {
		if p == "" || unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

// validationError converts validator output into a BadRequest naming the
// first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.BadRequest("Invalid request", err.Error())
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	if field == "" {
		field = fe.Field()
	}

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "email":
		message = "Invalid email address"
	case "username":
		message = usernameProblem(fmt.Sprint(fe.Value()))
	case "chain":
		message = "Invalid Chain ID"
	case "activity":
		message = "Invalid activity type"
	case "max":
		message = fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "url":
		message = fmt.Sprintf("%s must be a valid URL", field)
	default:
		message = fmt.Sprintf("%s is invalid", field)
	}
	return apperrors.BadRequest(message, field)
}
