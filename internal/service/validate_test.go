package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCPF(t *testing.T) {
	assert.True(t, validCPF("52998224725"))
	assert.True(t, validCPF("529.982.247-25"))

	assert.False(t, validCPF(""))
	assert.False(t, validCPF("123"))
	assert.False(t, validCPF("52998224724")) // wrong check digit
	assert.False(t, validCPF("00000000000"))
	assert.False(t, validCPF("529.982.24725"))
}

func TestValidCEP(t *testing.T) {
	assert.True(t, validCEP("01310-100"))
	assert.True(t, validCEP("01310100"))
	assert.False(t, validCEP("1310-100"))
	assert.False(t, validCEP("abcde-fgh"))
}

func TestValidCNAE(t *testing.T) {
	assert.True(t, validCNAE("6201-5/01"))
	assert.True(t, validCNAE("6201501"))
	assert.False(t, validCNAE("62-01"))
	assert.False(t, validCNAE(""))
}

func TestParsePrice(t *testing.T) {
	price, err := parsePrice("97.00")
	assert.NoError(t, err)
	assert.True(t, price.Equal(mustDecimal(t, "97.00")))

	_, err = parsePrice("abc")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = parsePrice("-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = parsePrice("0")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
