package mappers_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"go-taskboard/backend/internal/mappers"
	"go-taskboard/backend/internal/models"
)

func TestToTodoView(t *testing.T) {
	todo := models.Todo{
		ID:          3,
		Title:       "title",
		Description: "description",
		IsCompleted: models.Ptr(true),
		DueDate:     models.NewDate(2030, 1, 1),
		OwnerUID:    "u1",
	}

	got := mappers.ToTodoView(todo)
	want := models.TodoView{
		ID:          3,
		Title:       "title",
		Description: "description",
		IsCompleted: models.Ptr(true),
		DueDate:     models.NewDate(2030, 1, 1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}

	*todo.IsCompleted = false
	assert.True(t, *got.IsCompleted, "view must not share the completion pointer")
}

func TestToTodoView_NilCompletion(t *testing.T) {
	got := mappers.ToTodoView(models.Todo{ID: 1})
	assert.Nil(t, got.IsCompleted)
}

func TestRequestToTodo(t *testing.T) {
	due := models.NewDate(2030, 6, 1)
	todo := mappers.RequestToTodo(models.TodoRequest{
		Title:       "title",
		Description: "description",
		IsCompleted: models.Ptr(false),
		DueDate:     &due,
	})

	assert.Zero(t, todo.ID)
	assert.Empty(t, todo.OwnerUID)
	assert.Equal(t, models.StatePending, todo.State())
	assert.Equal(t, due, todo.DueDate)
}

func TestRequestToOverlay_EmptyStringsAreAbsent(t *testing.T) {
	overlay := mappers.RequestToOverlay(models.TodoRequest{Title: "", Description: "kept"})

	assert.Nil(t, overlay.Title)
	if assert.NotNil(t, overlay.Description) {
		assert.Equal(t, "kept", *overlay.Description)
	}
}

func TestPatchToOverlay(t *testing.T) {
	overlay := mappers.PatchToOverlay(models.TodoPatch{IsCompleted: models.Ptr(true)})

	assert.Nil(t, overlay.Title)
	assert.Nil(t, overlay.Description)
	assert.Nil(t, overlay.DueDate)
	assert.Equal(t, models.Ptr(true), overlay.IsCompleted)
}
