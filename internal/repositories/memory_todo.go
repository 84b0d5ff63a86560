package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/pagination"
)

// InMemoryTodoRepository はメモリ上のmapで TodoRepository を実装します。
// ローカル実行とハンドラーのテストで使います。
type InMemoryTodoRepository struct {
	mutex  sync.RWMutex
	txMu   sync.Mutex
	todos  map[int64]models.Todo
	nextID int64
}

// NewInMemoryTodoRepository は空のリポジトリを作成します。
func NewInMemoryTodoRepository() *InMemoryTodoRepository {
	return &InMemoryTodoRepository{
		todos:  make(map[int64]models.Todo),
		nextID: 1,
	}
}

type memTxKey struct{}

// WithinTransaction はトランザクションを直列化して fn を実行します。
// fn がエラーを返した場合は開始時点の内容に戻します。
func (r *InMemoryTodoRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	todos, nextID := r.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		r.mutex.Lock()
		r.todos, r.nextID = todos, nextID
		r.mutex.Unlock()
		return err
	}
	return nil
}

func (r *InMemoryTodoRepository) snapshot() (map[int64]models.Todo, int64) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	todos := make(map[int64]models.Todo, len(r.todos))
	for id, t := range r.todos {
		todos[id] = copyTodo(t)
	}
	return todos, r.nextID
}

// FindByOwner は所有者のTodoを1ページ分返します。
func (r *InMemoryTodoRepository) FindByOwner(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.Page[models.Todo], error) {
	return r.findPage(page, func(t models.Todo) bool {
		return t.OwnerUID == ownerUID
	}), nil
}

// FindByOwnerAndCompleted は所有者のTodoを完了状態で絞り込んで返します。
func (r *InMemoryTodoRepository) FindByOwnerAndCompleted(ctx context.Context, ownerUID string, completed bool, page pagination.PageRequest) (pagination.Page[models.Todo], error) {
	return r.findPage(page, func(t models.Todo) bool {
		return t.OwnerUID == ownerUID && (t.State() == models.StateCompleted) == completed
	}), nil
}

func (r *InMemoryTodoRepository) findPage(page pagination.PageRequest, match func(models.Todo) bool) pagination.Page[models.Todo] {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	matched := make([]models.Todo, 0)
	for _, t := range r.todos {
		if match(t) {
			matched = append(matched, copyTodo(t))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	result := pagination.Page[models.Todo]{
		Content:    []models.Todo{},
		PageNumber: page.Page,
		PageSize:   page.Size,
		Total:      int64(len(matched)),
	}
	start := page.Offset()
	if start >= len(matched) {
		return result
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	result.Content = matched[start:end]
	return result
}

// FindByIDAndOwner は (id, owner) に一致するTodoを返します。
func (r *InMemoryTodoRepository) FindByIDAndOwner(ctx context.Context, id int64, ownerUID string) (*models.Todo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	t, exists := r.todos[id]
	if !exists || t.OwnerUID != ownerUID {
		return nil, ErrTodoNotFound
	}
	found := copyTodo(t)
	return &found, nil
}

// Save はTodoを挿入または更新します。
func (r *InMemoryTodoRepository) Save(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	saved := copyTodo(*t)
	if saved.ID == 0 {
		saved.ID = r.nextID
		r.nextID++
		saved.CreatedAt = now
	} else {
		existing, exists := r.todos[saved.ID]
		if !exists || existing.OwnerUID != saved.OwnerUID {
			return nil, ErrTodoNotFound
		}
		saved.CreatedAt = existing.CreatedAt
	}
	saved.UpdatedAt = now
	r.todos[saved.ID] = saved

	result := copyTodo(saved)
	return &result, nil
}

// Delete はTodoを削除します。
func (r *InMemoryTodoRepository) Delete(ctx context.Context, t *models.Todo) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.todos[t.ID]
	if !exists || existing.OwnerUID != t.OwnerUID {
		return ErrTodoNotFound
	}
	delete(r.todos, t.ID)
	return nil
}

// Count は保存されているTodoの件数です。
func (r *InMemoryTodoRepository) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.todos)
}

// copyTodo は IsCompleted のポインタを共有しないコピーを返します。
func copyTodo(t models.Todo) models.Todo {
	if t.IsCompleted != nil {
		t.IsCompleted = models.Ptr(*t.IsCompleted)
	}
	return t
}
