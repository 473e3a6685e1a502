package properties

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestNewValidatorRegistersCount(t *testing.T) {
	v := newValidator()
	assert.NoError(t, v.Var("3", "count"))
	assert.Error(t, v.Var("-1", "count"))
	assert.Error(t, v.Var("three", "count"))
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	ok := func(validator.FieldLevel) bool { return true }
	v := validator.New()

	assert.PanicsWithValue(t, `register validation "": function Key cannot be empty`, func() {
		mustRegister(v, "", ok)
	})
	assert.Panics(t, func() { mustRegister(v, "omitempty", ok) })
	assert.Panics(t, func() { mustRegister(v, "count", nil) })
	assert.NotPanics(t, func() { mustRegister(v, "count", ok) })
}
