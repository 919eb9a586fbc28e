package indexer

import (
	"math"
	"reflect"
	"testing"
)

func TestSplitRangeWindows(t *testing.T) {
	cases := []struct {
		from, to, size uint64
		want           []BlockRange
	}{
		{100, 105, 2, []BlockRange{{100, 101}, {102, 103}, {104, 105}}},
		{100, 104, 2, []BlockRange{{100, 101}, {102, 103}, {104, 104}}},
		{5, 5, 10, []BlockRange{{5, 5}}},
		{124099140, 124099142, 8, []BlockRange{{124099140, 124099142}}},
		{math.MaxUint64 - 2, math.MaxUint64, 2, []BlockRange{{math.MaxUint64 - 2, math.MaxUint64 - 1}, {math.MaxUint64, math.MaxUint64}}},
	}

	for _, tc := range cases {
		got, err := SplitRange(tc.from, tc.to, tc.size)
		if err != nil {
			t.Fatalf("split %d-%d/%d: %v", tc.from, tc.to, tc.size, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("split %d-%d/%d: %+v != %+v", tc.from, tc.to, tc.size, got, tc.want)
		}
		var total uint64
		for _, w := range got {
			total += w.Len()
		}
		if total != tc.to-tc.from+1 {
			t.Fatalf("split %d-%d/%d covers %d heights", tc.from, tc.to, tc.size, total)
		}
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for reversed range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero window size")
	}
}
