package query

// DefaultPageSize is the Results page size.
const DefaultPageSize = 25

// Page is one slice of a sorted sequence plus the totals a pager needs.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TotalPages is ceil(n/size).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// Paginate returns items[(page-1)*size : page*size] clamped to the slice.
// Pages below 1 read as 1; pages past the end are empty.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	p := Page[T]{
		Page:       page,
		PageSize:   size,
		Total:      len(items),
		TotalPages: TotalPages(len(items), size),
		Items:      []T{},
	}
	// compare pages before multiplying; (page-1)*size can overflow
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	p.Items = append(p.Items, items[start:end]...)
	return p
}
