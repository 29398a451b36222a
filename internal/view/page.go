package view

import "github.com/Joseda-hg/obracrm/internal/model"

type PageInfo struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// Paginate slices out page (zero-based) of size records. A size of zero or
// less disables paging; a page past the end is clamped to the last one.
func Paginate(records []model.Record, page, size int) ([]model.Record, PageInfo) {
	total := len(records)
	if size <= 0 {
		return records, PageInfo{Page: 0, Size: total, Pages: 1, Total: total}
	}

	pages := total / size
	if total%size != 0 || pages == 0 {
		pages++
	}
	page = max(min(page, pages-1), 0)

	start := page * size
	end := start + min(size, total-start)
	return records[start:end], PageInfo{Page: page, Size: size, Pages: pages, Total: total}
}
