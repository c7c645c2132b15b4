package repositories

// DefaultReportPageSize is the page size used when draining a large result
// set page by page.
const DefaultReportPageSize = 500

// FetchAllPages drains a paged query by calling fetch with increasing offsets
// until a short page comes back. fetch receives (limit, offset).
func FetchAllPages[T any](pageSize int, fetch func(limit, offset int) ([]T, error)) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultReportPageSize
	}

	var all []T
	offset := 0
	for {
		page, err := fetch(pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}
