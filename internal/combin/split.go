package combin

// Chunk groups items into contiguous runs of size elements. The final run may
// be shorter. A size below 1 is treated as 1.
//
// The returned runs share the backing array of items.
//
// Example:
//
//	Chunk([]int{1, 2, 3, 4, 5}, 2) // [[1 2] [3 4] [5]]
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	if len(items) == 0 {
		return nil
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}

	return out
}

// Split divides items into n contiguous groups whose lengths differ by at most
// one. When len(items) is not a multiple of n, the earlier groups receive the
// extra item.
//
// n is clamped to [1, len(items)], so no group is ever empty. An empty input
// yields nil.
//
// Example:
//
//	Split([]int{1, 2, 3, 4, 5}, 3) // [[1 2] [3 4] [5]]
func Split[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	n = max(1, min(n, len(items)))

	base := len(items) / n
	extra := len(items) % n

	out := make([][]T, n)
	start := 0
	for i := range n {
		size := base
		if i < extra {
			size++
		}
		end := start + size
		out[i] = items[start:end:end]
		start = end
	}

	return out
}
