package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("maria@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("sem-arroba"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))
}

func TestValidateCPF(t *testing.T) {
	// dígitos verificadores corretos
	assert.NoError(t, ValidateCPF("529.982.247-25"))
	assert.NoError(t, ValidateCPF("52998224725"))

	assert.Error(t, ValidateCPF("52998224724"))
	assert.Error(t, ValidateCPF("11111111111"))
	assert.Error(t, ValidateCPF("123"))
}

func TestValidateCNPJ(t *testing.T) {
	assert.NoError(t, ValidateCNPJ("11.222.333/0001-81"))
	assert.NoError(t, ValidateCNPJ("11222333000181"))

	assert.Error(t, ValidateCNPJ("11222333000180"))
	assert.Error(t, ValidateCNPJ("11111111111111"))
	assert.Error(t, ValidateCNPJ("123"))
}
