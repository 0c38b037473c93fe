// Package pagination implements the offset cursor protocol shared by every
// paginated listing: fetch one row more than the page size, and use the
// presence of that extra row to decide whether a further page exists.
package pagination

// NoMorePages is the cursor sentinel returned when the scanned set is
// exhausted.
const NoMorePages = -1

const (
	// DefaultPageSize applies to comments, replies, tweets and videos.
	DefaultPageSize = 10
	// SubscriberPageSize applies to channel subscriber listings.
	SubscriberPageSize = 20
)

// FetchLimit returns the row limit to request from the store for a page of
// the given size: one extra row signals a following page.
func FetchLimit(pageSize int) int {
	return pageSize + 1
}

// Page truncates an over-fetched result to pageSize items and computes the
// next offset. When exactly pageSize+1 rows were fetched the extra row is
// dropped and next points at the first undelivered row; otherwise the scan
// is exhausted and next is NoMorePages. An offset past the end of the
// collection simply yields an empty page.
func Page[T any](rows []T, start, pageSize int) ([]T, int) {
	if len(rows) == FetchLimit(pageSize) {
		return rows[:pageSize], start + pageSize
	}
	return rows, NoMorePages
}
