package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("register user: %w", Validation("user", "email", "already registered"))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, IsValidation(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "email", FieldOf(err))
}

func TestKindOf_Internal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
	assert.False(t, Is(nil, KindInternal))
}

func TestDenied_DoesNotLeakExistence(t *testing.T) {
	missing := Denied("user_connection", "c-404")
	forbidden := Denied("user_connection", "c-200")

	assert.Equal(t, missing.Message, forbidden.Message)
	assert.Equal(t, missing.Kind, forbidden.Kind)
	assert.True(t, IsAuthorization(missing))
}

func TestCollaborator_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Collaborator("classifier", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, IsCollaborator(err))
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{Validation("user", "email", "invalid"), "VALIDATION: user.email: invalid"},
		{Denied("message", "m1"), "AUTHORIZATION: message m1: access denied"},
		{NotFound("user", "u1"), "NOT_FOUND: user u1: not found"},
		{Collaborator("storage", errors.New("x")), "COLLABORATOR: storage: collaborator call failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestDescribe(t *testing.T) {
	d := Describe(fmt.Errorf("wrap: %w", Conflict("review", "professional_id", "already reviewed")))
	assert.Equal(t, Description{
		Kind:    KindConflict,
		Entity:  "review",
		Field:   "professional_id",
		Message: "already reviewed",
	}, d)

	d = Describe(errors.New("sql: database is locked"))
	assert.Equal(t, KindInternal, d.Kind)
	assert.Equal(t, "internal error", d.Message)
}
