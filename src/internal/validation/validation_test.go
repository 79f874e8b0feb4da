package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestDetails(t *testing.T) {
	err := validator.New().Struct(registration{Email: "not-an-email", Password: "short"})

	assert.Equal(t, map[string]string{
		"email":    "email",
		"password": "min",
	}, Details(err))
}

func TestDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Details(errors.New("unexpected EOF")))
	assert.Nil(t, Details(nil))
}
