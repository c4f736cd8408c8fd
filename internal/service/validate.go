package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"geonosis/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

type enum interface {
	Valid() bool
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enum)
		return ok && e.Valid()
	})

	v.RegisterStructValidation(validatePBIPatch, domain.PBIPatch{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// validatePBIPatch covers the nullable fields, which tags cannot reach.
func validatePBIPatch(sl validator.StructLevel) {
	patch := sl.Current().Interface().(domain.PBIPatch)

	if v := patch.PRStatus.Value; v != nil && !v.Valid() {
		sl.ReportError(string(*v), "pr_status", "PRStatus", "enum", "")
	}
	if v := patch.AssignedAgent.Value; v != nil && utf8.RuneCountInString(*v) > 100 {
		sl.ReportError(*v, "assigned_agent", "AssignedAgent", "max", "100")
	}
	if v := patch.BranchName.Value; v != nil && utf8.RuneCountInString(*v) > 255 {
		sl.ReportError(*v, "branch_name", "BranchName", "max", "255")
	}
}

// validateInput checks struct tags and converts the first failure into a
// *domain.ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &domain.ValidationError{
		Field:   fieldPath(fe.Namespace()),
		Message: message(fe),
	}
}

// fieldPath drops the leading struct name: "BulkFeatures.features[0].name"
// becomes "features[0].name".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "enum":
		return "has invalid value"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		default:
			return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		}
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		default:
			return fmt.Sprintf("must be less than or equal to %s", fe.Param())
		}
	}
	return "failed on " + fe.Tag()
}
