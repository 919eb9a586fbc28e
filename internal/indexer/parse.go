package indexer

import (
	"fmt"
	"strconv"
	"strings"
)

var heightSeparators = strings.NewReplacer("_", "", ",", "", " ", "", ".", "")

// ParseBlockHeight parses a block height, ignoring digit group separators
// ("124_099_140", "124,099,140").
func ParseBlockHeight(input string) (uint64, error) {
	cleaned := heightSeparators.Replace(strings.TrimSpace(input))
	if cleaned == "" {
		return 0, fmt.Errorf("empty block height")
	}
	height, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block height %q: %w", input, err)
	}
	return height, nil
}
