package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type registration struct {
	Name    string `json:"name" binding:"required,max=5"`
	Contact string `json:"contact" binding:"required,email"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	Setup()

	fields := Struct(&registration{Name: "too long name", Contact: "nope"})
	require.Len(t, fields, 2)
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "contact")
}

func TestStructValid(t *testing.T) {
	Setup()
	require.Nil(t, Struct(&registration{Name: "Ada", Contact: "ada@example.com"}))
}
