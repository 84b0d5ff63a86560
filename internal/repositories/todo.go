// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"errors"

	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/pagination"
)

// ErrTodoNotFound は (id, owner) に一致するTODOが見つからない場合のエラーです。
// 他のユーザーのTODOであっても同じエラーを返します。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はTodoの永続化を抽象化します。すべての検索は所有者で絞り込みます。
type TodoRepository interface {
	FindByOwner(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.Page[models.Todo], error)

	// FindByOwnerAndCompleted は完了状態で絞り込みます。completed=false は IsCompleted が nil のものも含みます。
	FindByOwnerAndCompleted(ctx context.Context, ownerUID string, completed bool, page pagination.PageRequest) (pagination.Page[models.Todo], error)

	FindByIDAndOwner(ctx context.Context, id int64, ownerUID string) (*models.Todo, error)

	// Save は ID が 0 なら挿入、それ以外は更新します。
	Save(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	Delete(ctx context.Context, todo *models.Todo) error

	// WithinTransaction は fn を1つのトランザクション内で実行します。
	// fn がエラーを返した場合はロールバックします。
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
