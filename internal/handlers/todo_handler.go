package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-taskboard/backend/internal/models"
	"go-taskboard/backend/internal/pagination"
	"go-taskboard/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// CreateTodoHandler は新しいTodoを作成し、Location ヘッダー付きで返します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}

	created, err := h.todoService.Create(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%d", c.FullPath(), created.ID))
	c.JSON(http.StatusCreated, created)
}

// GetTodosHandler は自分のTodoをページ単位で返します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	h.listTodos(c, h.todoService.ReadAll)
}

// GetPendingTodosHandler は未完了のTodoをページ単位で返します。
func (h *TodoHandler) GetPendingTodosHandler(c *gin.Context) {
	h.listTodos(c, h.todoService.ReadAllPending)
}

// GetCompletedTodosHandler は完了済みのTodoをページ単位で返します。
func (h *TodoHandler) GetCompletedTodosHandler(c *gin.Context) {
	h.listTodos(c, h.todoService.ReadAllCompleted)
}

type listFunc func(ctx context.Context, ownerUID string, page pagination.PageRequest) (pagination.PageResponse[models.TodoView], error)

func (h *TodoHandler) listTodos(c *gin.Context, list listFunc) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var query pagination.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	todos, err := list(c.Request.Context(), owner, query.Request())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定されたIDのTodoを返します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}

	todo, err := h.todoService.Read(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// UpdateTodoHandler はTodoを全体更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	var req models.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}

	updated, err := h.todoService.Update(c.Request.Context(), owner, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// PatchTodoHandler はTodoを部分更新します。
func (h *TodoHandler) PatchTodoHandler(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	var patch models.TodoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}

	patched, err := h.todoService.Patch(c.Request.Context(), owner, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patched)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := todoIDParam(c)
	if !ok {
		return
	}
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}

	if err := h.todoService.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func todoIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid ID format", "")
		return 0, false
	}
	return id, true
}
