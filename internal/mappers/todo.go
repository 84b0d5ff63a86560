// Package mappers は永続化モデルとリクエスト/レスポンスの変換を行います。
package mappers

import (
	"go-taskboard/backend/internal/models"
)

// ToTodoView はTodoをレスポンス用のビューに変換します。OwnerUIDは含めません。
func ToTodoView(t models.Todo) models.TodoView {
	var completed *bool
	if t.IsCompleted != nil {
		completed = models.Ptr(*t.IsCompleted)
	}
	return models.TodoView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: completed,
		DueDate:     t.DueDate,
	}
}

// RequestToTodo は作成リクエストから新しいTodoを組み立てます。ID と OwnerUID は設定しません。
func RequestToTodo(req models.TodoRequest) models.Todo {
	t := models.Todo{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.IsCompleted != nil {
		t.IsCompleted = models.Ptr(*req.IsCompleted)
	}
	if req.DueDate != nil {
		t.DueDate = *req.DueDate
	}
	return t
}

// RequestToOverlay は全体更新リクエストを上書き用の overlay に変換します。
func RequestToOverlay(req models.TodoRequest) models.TodoOverlay {
	return models.TodoOverlay{
		Title:       optionalString(req.Title),
		Description: optionalString(req.Description),
		IsCompleted: req.IsCompleted,
		DueDate:     req.DueDate,
	}
}

// PatchToOverlay は部分更新リクエストを overlay に変換します。
func PatchToOverlay(p models.TodoPatch) models.TodoOverlay {
	return models.TodoOverlay{
		Title:       p.Title,
		Description: p.Description,
		IsCompleted: p.IsCompleted,
		DueDate:     p.DueDate,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
