package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=8"`
	Username    string `validate:"required,min=3,max=30"`
	DisplayName string `validate:"required,max=100"`
	AvatarURL   string `validate:"omitempty,url"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(signUpForm{
		Email:       "owner@example.com",
		Password:    "Sup3rSecret",
		Username:    "pawfan",
		DisplayName: "Paw Fan",
	})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(signUpForm{
		Email:    "not-an-email",
		Password: "short",
		Username: "ab",
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "must be at least 8 characters", fields["Password"])
	assert.Equal(t, "must be at least 3 characters", fields["Username"])
	assert.Equal(t, "is required", fields["DisplayName"])

	assert.Contains(t, valErr.Error(), "field 'Email'")
}

func TestValidate_OmitemptySkipsEmpty(t *testing.T) {
	err := Validate(signUpForm{
		Email:       "owner@example.com",
		Password:    "Sup3rSecret",
		Username:    "pawfan",
		DisplayName: "Paw Fan",
		AvatarURL:   "",
	})
	assert.NoError(t, err)

	err = Validate(signUpForm{
		Email:       "owner@example.com",
		Password:    "Sup3rSecret",
		Username:    "pawfan",
		DisplayName: "Paw Fan",
		AvatarURL:   "::not-a-url",
	})
	assert.Error(t, err)
}
