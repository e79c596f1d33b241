package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad %s", "input")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFound("user %d", 7))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestErrorMessage(t *testing.T) {
	err := Validation("field %s is blank", "name")
	assert.Equal(t, "VALIDATION: field name is blank", err.Error())
}
