package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contactForm struct {
	Phone       string `validate:"required,phone_number"`
	Sensitivity string `validate:"omitempty,sensitivity"`
}

func TestCustomTags(t *testing.T) {
	assert.NoError(t, ValidateStruct(contactForm{Phone: "+14155550123", Sensitivity: "HIGH"}))
	assert.NoError(t, ValidateStruct(contactForm{Phone: "+14155550123"}))
	assert.Error(t, ValidateStruct(contactForm{Phone: "call me"}))
	assert.Error(t, ValidateStruct(contactForm{Phone: "+14155550123", Sensitivity: "extreme"}))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+1 415 555 0123"))
	assert.ErrorIs(t, ValidatePhone("  "), ErrInvalidPhoneNumber)
	assert.ErrorIs(t, ValidatePhone("12"), ErrInvalidPhoneNumber)
}

func TestRegisterWithGin(t *testing.T) {
	assert.NoError(t, RegisterWithGin())
}
