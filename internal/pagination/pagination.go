// Package pagination はページ指定とページレスポンスの組み立てを扱います。
package pagination

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// PageRequest は 0 始まりのページ番号とページサイズです。
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest は不正な値を丸めた PageRequest を返します。
// 負のページは 0、1 未満のサイズは既定値、上限を超えるサイズは上限になります。
// ページは Offset とその終端が int に収まる範囲に抑えます。
func NewPageRequest(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if maxPage := math.MaxInt/size - 1; page > maxPage {
		page = maxPage
	}
	return PageRequest{Page: page, Size: size}
}

// PageQuery はクエリパラメータ page / size のバインド先です。
type PageQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

// Request は丸めた PageRequest を返します。
func (q PageQuery) Request() PageRequest {
	return NewPageRequest(q.Page, q.Size)
}

// Offset は先頭から読み飛ばす件数です。
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page はストアが返す1ページ分の結果です。
type Page[T any] struct {
	Content    []T
	PageNumber int
	PageSize   int
	Total      int64
}

// Map は Content の各要素を fn で変換した Page を返します。
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return Page[U]{
		Content:    content,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		Total:      p.Total,
	}
}

// PageResponse はページのメタデータを含むレスポンスです。
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	ElementsSize  int   `json:"elementsSize"`
	ElementsTotal int64 `json:"elementsTotal"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	PageTotal     int   `json:"pageTotal"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`
}

// NewPageResponse は Page から派生値を計算して PageResponse を作ります。
func NewPageResponse[T any](p Page[T]) PageResponse[T] {
	content := p.Content
	if content == nil {
		content = []T{}
	}
	pageTotal := TotalPages(p.Total, p.PageSize)
	return PageResponse[T]{
		Content:       content,
		ElementsSize:  len(content),
		ElementsTotal: p.Total,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
		PageTotal:     pageTotal,
		First:         p.PageNumber == 0,
		Last:          p.PageNumber >= pageTotal-1,
		Empty:         len(content) == 0,
	}
}

// TotalPages は ceil(total / size) を返します。total が 0 なら 0 です。
func TotalPages(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
