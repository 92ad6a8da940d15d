package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	setupOnce     sync.Once
)

// reservedUsernames collide with routes under /api/users.
var reservedUsernames = map[string]struct{}{
	"me":            {},
	"subscriptions": {},
	"set_password":  {},
}

// ValidUsername reports whether username passes the username format rules.
func ValidUsername(username string) bool {
	if !usernameRegex.MatchString(username) {
		return false
	}
	_, reserved := reservedUsernames[strings.ToLower(username)]
	return !reserved
}

// Configure registers JSON tag names and custom validations on v.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
}

// Setup configures gin's binding validator. Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Configure(v)
		}
	})
}

// New returns a standalone validator configured like gin's.
func New() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

// FromBindError converts an error returned by c.ShouldBindJSON or
// validator.Struct into field keyed Errors.
func FromBindError(err error) Errors {
	errs := Errors{}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs.Add(fieldName(fe.Namespace()), message(fe))
		}
		return errs
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		errs.Add(topLevel(typeErr.Field), fmt.Sprintf("Expected a value of type %s.", typeErr.Type))
		return errs
	}

	errs.Add(NonFieldErrors, "Invalid request body.")
	return errs
}

// fieldName strips the struct name from a validator namespace and returns
// the top level JSON field, e.g. "RecipeWriteRequest.tags[0]" -> "tags".
func fieldName(namespace string) string {
	if idx := strings.Index(namespace, "."); idx != -1 {
		namespace = namespace[idx+1:]
	}
	return topLevel(namespace)
}

func topLevel(path string) string {
	if idx := strings.IndexAny(path, ".["); idx != -1 {
		return path[:idx]
	}
	return path
}

func message(fe validator.FieldError) string {
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		numeric = true
	}

	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. It may contain only letters, numbers and @/./+/-/_ characters."
	case "hexcolor":
		return "Enter a valid HEX color."
	case "min", "gte":
		if numeric {
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max", "lte":
		if numeric {
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}
