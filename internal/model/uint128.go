package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Uint128 is an unsigned 128-bit integer encoded in JSON as a decimal string.
type Uint128 struct {
	v uint256.Int
}

func NewUint128(x uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(x)
	return u
}

// ParseUint128 parses a base-10 string.
func ParseUint128(input string) (Uint128, error) {
	var u Uint128
	if err := u.v.SetFromDecimal(input); err != nil {
		return Uint128{}, fmt.Errorf("invalid uint128 %q: %w", input, err)
	}
	if u.v.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("invalid uint128 %q: overflows 128 bits", input)
	}
	return u, nil
}

func (u Uint128) String() string {
	return u.v.Dec()
}

func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts both a decimal string and a bare JSON number.
func (u *Uint128) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	parsed, err := ParseUint128(text)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
