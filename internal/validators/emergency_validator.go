package validators

import (
	"errors"
	"fmt"
	"strings"

	"happyshaa/internal/models"
	"happyshaa/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	ErrInvalidSensitivity = errors.New("sensitivity must be low, medium or high")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register adds the emergency tags (phone_number, sensitivity) to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("phone_number", validatePhoneNumber); err != nil {
		return err
	}
	return v.RegisterValidation("sensitivity", validateSensitivity)
}

// RegisterWithGin installs the tags on gin's binding validator so they
// apply to ShouldBindJSON.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return utils.IsValidPhone(fl.Field().String())
}

func validateSensitivity(fl validator.FieldLevel) bool {
	_, err := models.ParseSensitivity(fl.Field().String())
	return err == nil
}

// ValidateStruct runs the validator outside of gin binding, e.g. for
// websocket payloads.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidatePhone is the service-level check for contact phone numbers.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" || !utils.IsValidPhone(phone) {
		return ErrInvalidPhoneNumber
	}
	return nil
}
