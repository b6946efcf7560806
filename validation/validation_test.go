package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string  `json:"name" validate:"required,max=5"`
	Code    string  `json:"code" validate:"required"`
	Comment *string `json:"comment" validate:"omitnil,min=1"`
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(&sample{Name: "toolong"})
	require.Error(t, err)

	var ve Errors
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve, 2)
	assert.Equal(t, []string{"name must be a maximum of 5 characters in length"}, ve["name"])
	assert.Equal(t, []string{"code is a required field"}, ve["code"])
}

func TestStruct_OptionalPointer(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "ok", Code: "c"}))

	empty := ""
	err := Struct(&sample{Name: "ok", Code: "c", Comment: &empty})
	var ve Errors
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve, "comment")
	assert.NotContains(t, ve, "name")
}

func TestErrors_Helpers(t *testing.T) {
	e := Errors{}
	assert.NoError(t, e.Err())

	e.Add("cif", "cif has already been taken")
	e.Merge(Errors{"cif": {"second"}, "name": {"name is a required field"}})

	assert.Equal(t, []string{"cif has already been taken", "second"}, e["cif"])
	assert.Error(t, e.Err())
	assert.Equal(t, "validation failed: cif has already been taken, second; name is a required field", e.Error())
}
