package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindTagsEveryConstructor(t *testing.T) {
	cases := map[string]error{
		"not_found":           NotFound("task", "t-1"),
		"invalid_transition":  InvalidTransition("cannot %s campaign in status %q", "pause", "setup"),
		"invalid_state":       InvalidState("task %q is already completed", "Shoot"),
		"blocked":             Blocked("task %q is blocked", "Post"),
		"conflict":            Conflict("business slug %q already exists", "joe"),
		"invalid_input":       InvalidInput("name is required"),
		"persistence_failure": Persistence("update task", errors.New("connection reset")),
		"internal":            errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Kind(err))
	}
	assert.Equal(t, "", Kind(nil))
}

func TestPersistencePassesDomainErrorsThrough(t *testing.T) {
	notFound := NotFound("campaign", "c-1")
	wrapped := Persistence("get campaign", notFound)
	assert.Same(t, notFound, wrapped)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrPersistence)
	assert.Nil(t, Persistence("noop", nil))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := fmt.Errorf("complete task: %w", Persistence("update task", cause))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "update task: deadlock detected")
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, `task "t-9" not found`, NotFound("task", "t-9").Error())
}
