package models

// TodoRequest は作成・全体更新のリクエストです。
// bindingタグ: Ginでのリクエストバリデーション用 (future は validation パッケージで登録)
type TodoRequest struct {
	Title       string `json:"Title" binding:"required,min=3,max=50"`
	Description string `json:"Description" binding:"required,min=4,max=250"`
	IsCompleted *bool  `json:"IsCompleted" binding:"required"`
	DueDate     *Date  `json:"DueDate" binding:"required,future"`
}

// TodoPatch は部分更新のリクエストです。すべて任意項目です。
type TodoPatch struct {
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	IsCompleted *bool   `json:"IsCompleted,omitempty"`
	DueDate     *Date   `json:"DueDate,omitempty" binding:"omitempty,future"`
}

// TodoView はクライアントへ返すTodoです (OwnerUIDは含めない)。
type TodoView struct {
	ID          int64  `json:"Id"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
	IsCompleted *bool  `json:"IsCompleted"`
	DueDate     Date   `json:"DueDate"`
}

// ErrorView はエラーレスポンスの共通形式です。
type ErrorView struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
