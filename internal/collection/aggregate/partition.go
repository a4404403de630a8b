package aggregate

import (
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// Partition splits rows into k contiguous chunks of len(rows)/k+1 rows each.
// Exactly k chunks are returned; because of the +1, trailing chunks may be empty
// even when len(rows) is a multiple of k. Callers skip empty chunks.
func Partition[T any](rows []T, k int) ([][]T, error) {
	if k < 1 {
		return nil, domain.ErrInvalidChunkCount
	}
	size := len(rows)/k + 1
	chunks := make([][]T, k)
	for i := 0; i < k; i++ {
		start := min(i*size, len(rows))
		end := min(start+size, len(rows))
		chunks[i] = rows[start:end:end]
	}
	return chunks, nil
}
