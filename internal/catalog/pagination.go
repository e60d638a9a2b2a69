package catalog

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page turns a 1-based page number and a page size into an offset and a
// limit. Out of range values fall back to the first page and the default size.
func Page(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

func paginate(items []Product, from, limit int) []Product {
	if from >= len(items) {
		return []Product{}
	}
	end := from + limit
	if end > len(items) {
		end = len(items)
	}
	return items[from:end]
}
