package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `validate:"required"`
	Items []string `validate:"required,min=1"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Name: "a", Items: []string{"x"}}))

	err := ValidateStruct(sample{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "items is required")
}

func TestValidateVar(t *testing.T) {
	require.NoError(t, ValidateVar("equations", []string{"x=1", "y=2"}, "max=2,dive,max=5"))

	err := ValidateVar("equations", []string{"x=1", "y=2", "z=3"}, "max=2,dive,max=5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equations")
	assert.Contains(t, err.Error(), "at most 2 items")

	err = ValidateVar("equations", []string{"x=123456"}, "max=2,dive,max=5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 5 characters")
}
