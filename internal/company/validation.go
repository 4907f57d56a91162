package company

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinFounded is the earliest accepted founding (or CEO start) year.
const MinFounded = 1800


var (
	validateOnce sync.Once
	validate     *validator.Validate

	// now is swapped in tests.
	now = time.Now
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(now().Year())
		})
		validate = v
	})
	return validate
}

// Validate checks shape and range rules and returns a *ValidationError.
func (a Attributes) Validate() error {
	verr := &ValidationError{}
	if err := validatorInstance().Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	}
	if err := a.Location.Validate(); err != nil {
		verr.Add("location", "Invalid location")
	}
	if err := a.Industry.Validate(); err != nil {
		verr.Add("industry", "Industry primary is required")
	}
	if err := a.CEO.Validate(); err != nil {
		verr.Add("ceo", "CEO name is required")
	}
	if v, ok := a.CEO.Value(); ok && v.Since != 0 && (v.Since < MinFounded || v.Since > now().Year()) {
		verr.Add("ceo", fmt.Sprintf("CEO start year must be between %d and %d", MinFounded, now().Year()))
	}
	return verr.OrNil()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "name" {
			return "Company name is required"
		}
		return "This field is required"
	case "max":
		if fe.Kind() == reflect.Int {
			return fmt.Sprintf("Must be %s or less", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "url":
		if fe.Field() == "logo_url" {
			return "Invalid logo URL"
		}
		return "Invalid website URL"
	case "min":
		if fe.Field() == "founded" {
			return fmt.Sprintf("Must be %s or later", fe.Param())
		}
		return fmt.Sprintf("Must be %s or greater", fe.Param())
	case "notfuture":
		return fmt.Sprintf("Must be %d or earlier", now().Year())
	default:
		return fe.Error()
	}
}
