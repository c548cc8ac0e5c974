package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"

	"launchkit/internal/models"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator. It satisfies echo.Validator.
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewValidator creates a new validator instance
func NewValidator() *CustomValidator {
	v := playgroundvalidator.New()

	// Report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("system_role", validateSystemRole))
	must(v.RegisterValidation("org_role", validateOrgRole))
	must(v.RegisterValidation("slug", validateSlug))
	must(v.RegisterValidation("preference_scope", validatePreferenceScope))

	return &CustomValidator{validator: v}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func validateSystemRole(fl playgroundvalidator.FieldLevel) bool {
	return models.SystemRole(fl.Field().String()).Valid()
}

func validateOrgRole(fl playgroundvalidator.FieldLevel) bool {
	return models.OrgRole(fl.Field().String()).Valid()
}

func validateSlug(fl playgroundvalidator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

func validatePreferenceScope(fl playgroundvalidator.FieldLevel) bool {
	return models.PreferenceScope(fl.Field().String()).Valid()
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// Fields formats validation errors into a field to message map
func (ve ValidationErrors) Fields() map[string]string {
	errMap := make(map[string]string)
	for _, err := range ve {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "url":
			errMap[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "uuid":
			errMap[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "oneof":
			errMap[field] = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "system_role":
			errMap[field] = fmt.Sprintf("%s must be one of: admin, user, moderator", field)
		case "org_role":
			errMap[field] = fmt.Sprintf("%s must be one of: owner, admin, member, guest", field)
		case "slug":
			errMap[field] = fmt.Sprintf("%s must contain lowercase letters, digits and single dashes", field)
		case "preference_scope":
			errMap[field] = fmt.Sprintf("%s must be either 'user' or 'organization'", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, tag)
		}
	}
	return errMap
}
