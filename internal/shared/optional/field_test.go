package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Title    Field[string] `json:"title"`
	Priority Field[int]    `json:"priority"`
	DueDate  Field[string] `json:"due_date"`
}

func TestFieldDistinguishesAbsentNullAndValue(t *testing.T) {
	var req patch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Shoot photos","due_date":null}`), &req))

	assert.True(t, req.Title.Present())
	assert.Equal(t, "Shoot photos", req.Title.Value)

	assert.False(t, req.Priority.Set)
	assert.Nil(t, req.Priority.Ptr())

	assert.True(t, req.DueDate.Set)
	assert.True(t, req.DueDate.Null)
	assert.False(t, req.DueDate.Present())
}

func TestFieldRejectsWrongType(t *testing.T) {
	var req patch
	assert.Error(t, json.Unmarshal([]byte(`{"priority":"high"}`), &req))
}

func TestFieldMarshal(t *testing.T) {
	out, err := json.Marshal(patch{Title: Of("x"), Priority: Null[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","priority":null,"due_date":null}`, string(out))

	ptr := Of(3).Ptr()
	require.NotNil(t, ptr)
	assert.Equal(t, 3, *ptr)
}
