package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/pagination"
)

const todoColumns = "id, owner_uid, title, description, is_completed, due_date, created_at, updated_at"

type txKey struct{}

// querier は *sql.DB と *sql.Tx の共通部分です。
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLTodoRepository は MySQL をストアとする TodoRepository です。
type MySQLTodoRepository struct {
	DB *sql.DB
}

// NewMySQLTodoRepository は新しいMySQLTodoRepositoryインスタンスを作成します。
func NewMySQLTodoRepository(db *sql.DB) *MySQLTodoRepository {
	return &MySQLTodoRepository{DB: db}
}

func (r *MySQLTodoRepository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.DB
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// WithinTransaction は fn をトランザクション内で実行します。既に開始済みならそれに参加します。
func (r *MySQLTodoRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to rollback transaction", "err", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// FindByOwner は所有者のTodoを1ページ分取得します。
func (r *MySQLTodoRepository) FindByOwner(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.Page[models.Todo], error) {
	return r.findPage(ctx, "owner_uid = ?", []any{ownerUID}, page)
}

// FindByOwnerAndCompleted は所有者のTodoを完了状態で絞り込んで取得します。
func (r *MySQLTodoRepository) FindByOwnerAndCompleted(ctx context.Context, ownerUID string, completed bool, page pagination.PageRequest) (pagination.Page[models.Todo], error) {
	where := "owner_uid = ? AND (is_completed = FALSE OR is_completed IS NULL)"
	if completed {
		where = "owner_uid = ? AND is_completed = TRUE"
	}
	return r.findPage(ctx, where, []any{ownerUID}, page)
}

func (r *MySQLTodoRepository) findPage(ctx context.Context, where string, args []any, page pagination.PageRequest) (pagination.Page[models.Todo], error) {
	result := pagination.Page[models.Todo]{PageNumber: page.Page, PageSize: page.Size}

	countQuery := "SELECT COUNT(*) FROM todos WHERE " + where
	if err := r.conn(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		log.Error("failed to count todos", "err", err)
		return result, fmt.Errorf("could not count todos: %w", err)
	}

	query := "SELECT " + todoColumns + " FROM todos WHERE " + where + " ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.conn(ctx).QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		log.Error("failed to query todos", "err", err)
		return result, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	result.Content = []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			log.Error("failed to scan todo", "err", err)
			return result, fmt.Errorf("could not scan todo: %w", err)
		}
		result.Content = append(result.Content, t)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("error iterating todos: %w", err)
	}
	return result, nil
}

// FindByIDAndOwner は (id, owner) に一致するTodoを取得します。
// トランザクション内では行ロック (FOR UPDATE) を取ります。
func (r *MySQLTodoRepository) FindByIDAndOwner(ctx context.Context, id int64, ownerUID string) (*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE id = ? AND owner_uid = ?"
	if inTransaction(ctx) {
		query += " FOR UPDATE"
	}

	t, err := scanTodo(r.conn(ctx).QueryRowContext(ctx, query, id, ownerUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Error("failed to query todo by id", "id", id, "err", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return &t, nil
}

// Save はTodoを挿入または更新します。
func (r *MySQLTodoRepository) Save(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	now := time.Now().UTC().Truncate(time.Second)
	if t.ID == 0 {
		return r.insert(ctx, t, now)
	}
	return r.update(ctx, t, now)
}

func (r *MySQLTodoRepository) insert(ctx context.Context, t *models.Todo, now time.Time) (*models.Todo, error) {
	query := "INSERT INTO todos (owner_uid, title, description, is_completed, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	result, err := r.conn(ctx).ExecContext(ctx, query,
		t.OwnerUID, t.Title, t.Description, nullableBool(t.IsCompleted), t.DueDate, now, now)
	if err != nil {
		log.Error("failed to insert todo", "err", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}

	saved := *t
	saved.ID = id
	saved.CreatedAt = now
	saved.UpdatedAt = now
	return &saved, nil
}

func (r *MySQLTodoRepository) update(ctx context.Context, t *models.Todo, now time.Time) (*models.Todo, error) {
	query := "UPDATE todos SET title = ?, description = ?, is_completed = ?, due_date = ?, updated_at = ? WHERE id = ? AND owner_uid = ?"
	result, err := r.conn(ctx).ExecContext(ctx, query,
		t.Title, t.Description, nullableBool(t.IsCompleted), t.DueDate, now, t.ID, t.OwnerUID)
	if err != nil {
		log.Error("failed to update todo", "id", t.ID, "err", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	// DSN の clientFoundRows=true により、一致した行数が返ります
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTodoNotFound
	}

	saved := *t
	saved.UpdatedAt = now
	return &saved, nil
}

// Delete はTodoを削除します。
func (r *MySQLTodoRepository) Delete(ctx context.Context, t *models.Todo) error {
	result, err := r.conn(ctx).ExecContext(ctx, "DELETE FROM todos WHERE id = ? AND owner_uid = ?", t.ID, t.OwnerUID)
	if err != nil {
		log.Error("failed to delete todo", "id", t.ID, "err", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(s rowScanner) (models.Todo, error) {
	var t models.Todo
	var completed sql.NullBool
	err := s.Scan(&t.ID, &t.OwnerUID, &t.Title, &t.Description, &completed, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Todo{}, err
	}
	if completed.Valid {
		t.IsCompleted = models.Ptr(completed.Bool)
	}
	return t, nil
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
