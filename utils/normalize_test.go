package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "foo.bar.com", NormalizeDomain("Foo.Bar.com "))
	assert.Equal(t, "foo.bar.com", NormalizeDomain("\tFOO.BAR.COM\n"))
	assert.Equal(t, "", NormalizeDomain("   "))
}

func TestNormalizeDTO(t *testing.T) {
	dto := struct {
		StoreID  string
		Question string
		Count    int
	}{StoreID: "  acme.myshopify.com ", Question: " sales? ", Count: 3}

	NormalizeDTO(&dto)

	assert.Equal(t, "acme.myshopify.com", dto.StoreID)
	assert.Equal(t, "sales?", dto.Question)
	assert.Equal(t, 3, dto.Count)

	// non-pointers are ignored
	NormalizeDTO(dto)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 25, ParseIntDefault(" 25 ", 10))
	assert.Equal(t, 10, ParseIntDefault("", 10))
	assert.Equal(t, 10, ParseIntDefault("-3", 10))
	assert.Equal(t, 10, ParseIntDefault("abc", 10))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false, "debug")
	assert.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(true, "loud")
	assert.Error(t, err)
}
