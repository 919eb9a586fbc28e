package model

import (
	"bytes"
	"fmt"
)

// Success is the tri-state outcome of a receipt execution.
type Success uint8

const (
	// Pending means the outcome is not resolved yet.
	Pending Success = iota
	Succeeded
	Failed
)

func (s Success) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// MarshalJSON encodes Succeeded as true, Failed as false and Pending as null.
func (s Success) MarshalJSON() ([]byte, error) {
	switch s {
	case Succeeded:
		return []byte("true"), nil
	case Failed:
		return []byte("false"), nil
	case Pending:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("invalid success value %d", uint8(s))
	}
}

func (s *Success) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*s = Succeeded
	case "false":
		*s = Failed
	case "null":
		*s = Pending
	default:
		return fmt.Errorf("invalid success value %s", data)
	}
	return nil
}
