package messaging

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the webhook rules registered and
// field names reported by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("e164strict", func(fl validator.FieldLevel) bool {
		return IsE164(fl.Field().String())
	})
	return v
}

// validationMessage turns the first failed rule into a customer-facing error.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Invalid request body."
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "from" && fe.Tag() == "e164strict":
		return "'from' must be a valid E.164 phone number."
	case fe.Tag() == "required":
		return "'" + fe.Field() + "' is required and must be a non-empty string."
	default:
		return "'" + fe.Field() + "' is invalid."
	}
}
