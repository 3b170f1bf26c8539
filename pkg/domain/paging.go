package domain

// Page returns one page of items. A pageSize of zero returns every item, and a
// start offset past the end returns an empty slice rather than an error.
func Page[T any](items []T, pageSize, page uint16) []T {
	if pageSize == 0 {
		return items
	}
	start := int(pageSize) * int(page)
	if start >= len(items) {
		return []T{}
	}
	end := min(start+int(pageSize), len(items))
	return items[start:end]
}
