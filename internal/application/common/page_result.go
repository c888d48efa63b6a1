package common

import "github.com/greenmap/plant-service/internal/domain/repositories"

// PageResult mirrors the paging object the Android client already parses.
type PageResult[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Current int   `json:"current"`
	Size    int   `json:"size"`
	Pages   int64 `json:"pages"`
}

func NewPageResult[T any](records []T, total int64, page repositories.Page) *PageResult[T] {
	if records == nil {
		records = make([]T, 0)
	}
	return &PageResult[T]{
		Records: records,
		Total:   total,
		Current: page.Number,
		Size:    page.Size,
		Pages:   page.Pages(total),
	}
}
