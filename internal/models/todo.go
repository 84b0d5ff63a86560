// Package models はTodoと認証関連のデータ構造を定義します。
package models

import (
	"time"
)

// Todo は永続化されるToDoタスクです。OwnerUID はIDプロバイダーが発行したsubjectです。
type Todo struct {
	ID          int64
	Title       string
	Description string
	IsCompleted *bool // nil は未完了として扱う
	DueDate     Date
	OwnerUID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompletionState はTodoの完了状態です。
type CompletionState int

const (
	StatePending CompletionState = iota
	StateCompleted
)

func (s CompletionState) String() string {
	if s == StateCompleted {
		return "completed"
	}
	return "pending"
}

// AllowsMutation はこの状態のTodoを変更できるかを返します。
// Completed は終端状態で、どの操作でも抜け出せません。
func (s CompletionState) AllowsMutation() bool {
	return s == StatePending
}

// State は現在の完了状態を返します。
func (t *Todo) State() CompletionState {
	if t.IsCompleted != nil && *t.IsCompleted {
		return StateCompleted
	}
	return StatePending
}

// TodoOverlay は部分更新で上書きするフィールドだけを保持します。
// nil と空文字列は「変更しない」を意味します。
type TodoOverlay struct {
	Title       *string
	Description *string
	IsCompleted *bool
	DueDate     *Date
}

// Merge は overlay の指定されたフィールドを t に適用します。
func (t *Todo) Merge(o TodoOverlay) {
	if o.Title != nil && *o.Title != "" {
		t.Title = *o.Title
	}
	if o.Description != nil && *o.Description != "" {
		t.Description = *o.Description
	}
	if o.IsCompleted != nil {
		completed := *o.IsCompleted
		t.IsCompleted = &completed
	}
	if o.DueDate != nil && !o.DueDate.IsZero() {
		t.DueDate = *o.DueDate
	}
}

// Ptr は値のポインタを返します。リクエストやテストデータの組み立て用です。
func Ptr[T any](v T) *T {
	return &v
}
