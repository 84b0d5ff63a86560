package services

import (
	"context"
	"errors"

	"go-taskboard/backend/internal/mappers"
	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/pagination"
	"go-taskboard/backend/internal/repositories"
)

// ErrCompletedTodo は完了済みのTodoを全体更新しようとした場合のエラーです。
var ErrCompletedTodo = errors.New("cannot modify completed todo")

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は呼び出し元の ownerUID で絞り込まれ、1つのトランザクションで実行されます。
type TodoService struct {
	todoRepo repositories.TodoRepository
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo repositories.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// Create は ownerUID を所有者として新しいTodoを作成します。
func (s *TodoService) Create(ctx context.Context, ownerUID string, req models.TodoRequest) (models.TodoView, error) {
	var view models.TodoView
	err := s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todo := mappers.RequestToTodo(req)
		todo.OwnerUID = ownerUID
		saved, err := s.todoRepo.Save(ctx, &todo)
		if err != nil {
			return err
		}
		view = mappers.ToTodoView(*saved)
		return nil
	})
	return view, err
}

// ReadAll は所有者のTodoを1ページ分返します。
func (s *TodoService) ReadAll(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.PageResponse[models.TodoView], error) {
	return s.readPage(ctx, func(ctx context.Context) (pagination.Page[models.Todo], error) {
		return s.todoRepo.FindByOwner(ctx, ownerUID, page)
	})
}

// ReadAllPending は未完了のTodoを1ページ分返します。
func (s *TodoService) ReadAllPending(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.PageResponse[models.TodoView], error) {
	return s.readPage(ctx, func(ctx context.Context) (pagination.Page[models.Todo], error) {
		return s.todoRepo.FindByOwnerAndCompleted(ctx, ownerUID, false, page)
	})
}

// ReadAllCompleted は完了済みのTodoを1ページ分返します。
func (s *TodoService) ReadAllCompleted(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.PageResponse[models.TodoView], error) {
	return s.readPage(ctx, func(ctx context.Context) (pagination.Page[models.Todo], error) {
		return s.todoRepo.FindByOwnerAndCompleted(ctx, ownerUID, true, page)
	})
}

func (s *TodoService) readPage(ctx context.Context, find func(ctx context.Context) (pagination.Page[models.Todo], error)) (pagination.PageResponse[models.TodoView], error) {
	var resp pagination.PageResponse[models.TodoView]
	err := s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todos, err := find(ctx)
		if err != nil {
			return err
		}
		resp = pagination.NewPageResponse(pagination.Map(todos, mappers.ToTodoView))
		return nil
	})
	return resp, err
}

// Read は (id, ownerUID) に一致するTodoを返します。他人のTodoは存在しないものとして扱います。
func (s *TodoService) Read(ctx context.Context, ownerUID string, id int64) (models.TodoView, error) {
	var view models.TodoView
	err := s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todo, err := s.todoRepo.FindByIDAndOwner(ctx, id, ownerUID)
		if err != nil {
			return err
		}
		view = mappers.ToTodoView(*todo)
		return nil
	})
	return view, err
}

// Update はTodoを全体更新します。完了済みのTodoは ErrCompletedTodo で拒否します。
// 空文字列のフィールドは既存の値を残します。
func (s *TodoService) Update(ctx context.Context, ownerUID string, id int64, req models.TodoRequest) (models.TodoView, error) {
	var view models.TodoView
	err := s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todo, err := s.todoRepo.FindByIDAndOwner(ctx, id, ownerUID)
		if err != nil {
			return err
		}
		if !todo.State().AllowsMutation() {
			return ErrCompletedTodo
		}
		todo.Merge(mappers.RequestToOverlay(req))
		saved, err := s.todoRepo.Save(ctx, todo)
		if err != nil {
			return err
		}
		view = mappers.ToTodoView(*saved)
		return nil
	})
	return view, err
}

// Patch はTodoを部分更新します。完了済みのTodoには何もせず、現在の状態を返します。
func (s *TodoService) Patch(ctx context.Context, ownerUID string, id int64, patch models.TodoPatch) (models.TodoView, error) {
	var view models.TodoView
	err := s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todo, err := s.todoRepo.FindByIDAndOwner(ctx, id, ownerUID)
		if err != nil {
			return err
		}
		if todo.State().AllowsMutation() {
			todo.Merge(mappers.PatchToOverlay(patch))
			todo, err = s.todoRepo.Save(ctx, todo)
			if err != nil {
				return err
			}
		}
		view = mappers.ToTodoView(*todo)
		return nil
	})
	return view, err
}

// Delete は (id, ownerUID) に一致するTodoを削除します。
func (s *TodoService) Delete(ctx context.Context, ownerUID string, id int64) error {
	return s.todoRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		todo, err := s.todoRepo.FindByIDAndOwner(ctx, id, ownerUID)
		if err != nil {
			return err
		}
		return s.todoRepo.Delete(ctx, todo)
	})
}
