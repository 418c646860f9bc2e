package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Role     string `validate:"required,oneof=customer pro"`
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	assert.NoError(t, v.Validate(&signupForm{Email: "a@b.co", Password: "secret", Role: "pro"}))

	err := v.Validate(&signupForm{Email: "nope", Password: "123", Role: "admin"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Email must be a valid email")
		assert.Contains(t, err.Error(), "Password must be at least 6 characters")
		assert.Contains(t, err.Error(), "Role must be one of: customer pro")
	}

	err = v.Validate(&signupForm{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Email is required")
	}
}
