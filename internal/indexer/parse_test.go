package indexer

import "testing"

func TestParseBlockHeight(t *testing.T) {
	cases := map[string]uint64{
		"124099140":     124099140,
		"124_099_140":   124099140,
		"124,099,142":   124099142,
		" 124.099.141 ": 124099141,
		"124 099 140":   124099140,
	}
	for input, want := range cases {
		got, err := ParseBlockHeight(input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if got != want {
			t.Fatalf("%q: got %d, want %d", input, got, want)
		}
	}

	for _, bad := range []string{"", "_", "12a", "-5"} {
		if _, err := ParseBlockHeight(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
