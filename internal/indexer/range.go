package indexer

import "fmt"

// BlockRange is an inclusive span of block heights.
type BlockRange struct {
	From uint64
	To   uint64
}

// Len is the number of heights in the range.
func (r BlockRange) Len() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts [from, to] into consecutive windows of at most size heights. The
// blocks of one window are fetched together and delivered in order before the next.
func SplitRange(from, to, size uint64) ([]BlockRange, error) {
	if size == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("range end %d is before start %d", to, from)
	}

	windows := make([]BlockRange, 0, (to-from)/size+1)
	for start := from; ; start += size {
		// to-start guards against overflow near the top of uint64.
		if to-start < size {
			return append(windows, BlockRange{From: start, To: to}), nil
		}
		windows = append(windows, BlockRange{From: start, To: start + size - 1})
	}
}
