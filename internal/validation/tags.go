package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/go-playground/validator/v10"
)

// NewEngine creates a validator that names fields after their json tag and
// knows the notblank rule.
func NewEngine() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return !fl.Field().IsZero()
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Tags validates R with its `validate` struct tags, then with every extra rule.
func Tags[R any](engine *validator.Validate, extra ...Func[R]) Validator[R] {
	return Func[R](func(req R) []result.Error {
		var errs []result.Error

		if err := engine.Struct(req); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				// InvalidValidationError: R is not a struct, a wiring mistake.
				panic(fmt.Sprintf("validation: %v", err))
			}
			for _, fe := range fieldErrs {
				errs = append(errs, fromFieldError(fe))
			}
		}

		for _, rule := range extra {
			errs = append(errs, rule(req)...)
		}
		return errs
	})
}

// Field builds a validation error for a named field / Construit une erreur de validation de champ
func Field(field, rule, message string) result.Error {
	return result.Validation(field+"."+rule, message)
}

func fromFieldError(fe validator.FieldError) result.Error {
	field := fe.Field()
	return Field(field, fe.Tag(), describe(field, fe.Tag(), fe.Param()))
}

func describe(field, tag, param string) string {
	switch tag {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("%s failed the %s rule", field, tag)
	}
}
