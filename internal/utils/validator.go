package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"foodgram/domain"

	"github.com/go-playground/validator/v10"
)

var (
	Validate     *validator.Validate
	validateOnce sync.Once

	slugPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

func InitValidator() {
	validateOnce.Do(func() {
		Validate = validator.New(validator.WithRequiredStructEnabled())

		// report json names so field errors match the request body
		Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		if err := Validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	})
}

// ValidateStruct runs the struct tags of s and returns every failure as a
// *domain.ValidationError keyed by the top level json field.
func ValidateStruct(s any) *domain.ValidationError {
	InitValidator()

	verr := domain.NewValidationError()
	err := Validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("non_field_errors", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(topLevelField(fe.Namespace()), fieldMessage(fe))
	}
	return verr
}

// topLevelField turns "RecipeRequest.ingredients[1].id" into "ingredients".
func topLevelField(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	if i := strings.IndexAny(namespace, ".["); i >= 0 {
		namespace = namespace[:i]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "uuid":
		return "Must be a valid UUID."
	case "unique":
		return "Contains duplicate values."
	case "datauri":
		return "Must be a base64 encoded data URI."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "slug":
		return "Must contain only letters, digits, hyphens and underscores."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
