package relay

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// phonePattern is the same format the frontend enforces: a leading
// plus sign followed by 7 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+\d{7,15}$`)

// Payload is a single contact-form submission. Name and Phone are
// required unless the caller ships a fully pre-rendered message in
// DiscordMessage, in which case every discrete field is optional.
type Payload struct {
	Name           string `json:"name" validate:"required_without=DiscordMessage,omitempty,min=1,max=120"`
	Phone          string `json:"phone" validate:"required_without=DiscordMessage,omitempty,intlphone"`
	Age            *int   `json:"age" validate:"omitempty,min=10,max=99"`
	Language       string `json:"language" validate:"omitempty,max=32"`
	StudyLanguage  string `json:"study_language" validate:"omitempty,max=32"`
	Pack           int    `json:"pack" validate:"omitempty,min=1,max=1000"`
	Price          string `json:"price" validate:"omitempty,max=120"`
	Availability   string `json:"availability" validate:"omitempty,max=500"`
	Message        string `json:"message" validate:"omitempty,max=2000"`
	DiscordMessage string `json:"discord_message" validate:"omitempty,max=2000"`
}

// NormalizedPhone returns the phone value with all spaces stripped.
func (p Payload) NormalizedPhone() string {
	return strings.ReplaceAll(p.Phone, " ", "")
}

// newValidator builds the payload validator, reporting fields by their
// JSON names and registering the international phone rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Never fails for a func with a unique name.
	_ = v.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
		phone := strings.ReplaceAll(fl.Field().String(), " ", "")
		return phonePattern.MatchString(phone)
	})
	return v
}

// validationDetail turns the first validator error into a message a
// form caller can act on.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	// A malformed phone is the most actionable failure, so it wins
	// over co-occurring field errors.
	fe := verrs[0]
	for _, candidate := range verrs {
		if candidate.Tag() == "intlphone" {
			fe = candidate
			break
		}
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "intlphone":
		return "phone must be international, e.g. +212..."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	}
	return field + " is invalid"
}
