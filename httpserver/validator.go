package httpserver

import (
	"reflect"
	"strings"

	"contactbook/contact"
	"contactbook/errs"

	"github.com/go-playground/validator/v10"
)

// fieldMessages are reported instead of the generic "<field> failed on <tag>"
// for the contact body fields.
var fieldMessages = map[string]string{
	"firstName":    contact.ErrInvalidFirstName.Message,
	"lastName":     contact.ErrInvalidLastName.Message,
	"mobileNumber": contact.ErrInvalidMobileNumber.Message,
	"emailAddress": contact.ErrInvalidEmailAddress.Message,
	"dateOfBirth":  "Date of birth must be formatted as YYYY-MM-DD.",
}

type CustomValidator struct {
	validate *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("emailaddr", validateEmailAddress)
	_ = v.RegisterValidation("isodate", validateISODate)
	return &CustomValidator{validate: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return errs.Errorf(errs.EINVALID, "%s", formatValidationError(err))
	}
	return nil
}

func validateEmailAddress(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return contact.ValidEmailAddress(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := contact.ParseDate(fl.Field().String())
	return err == nil
}

func formatValidationError(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(errs))
		for _, fe := range errs {
			field := fe.Field()
			if field == "" {
				field = fe.StructField()
			}
			if msg, ok := fieldMessages[field]; ok {
				parts = append(parts, msg)
				continue
			}
			parts = append(parts, "validation error: "+field+" failed on "+fe.Tag())
		}
		return strings.Join(parts, " ")
	}
	return "validation error"
}
