package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"txIndexer/internal/model"
)

// ErrUnknownStatus is returned when an execution status has none of the known shapes.
var ErrUnknownStatus = errors.New("unknown execution status shape")

// StatusKind tags the variant held by an ExecutionStatus.
type StatusKind uint8

const (
	StatusUnknown StatusKind = iota
	StatusSuccessValue
	StatusSuccessReceiptID
	StatusFailure
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccessValue:
		return "SuccessValue"
	case StatusSuccessReceiptID:
		return "SuccessReceiptId"
	case StatusFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// ExecutionStatus is the result of executing a receipt or converting a transaction.
// On the wire it is either the string "Unknown" or a single-key object.
type ExecutionStatus struct {
	Kind StatusKind
	// SuccessValue is the base64 return value.
	SuccessValue string
	// ReceiptID is the receipt execution continued into.
	ReceiptID model.CryptoHash
	Failure   json.RawMessage
}

func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if name == "Unknown" {
			*s = ExecutionStatus{Kind: StatusUnknown}
			return nil
		}
		return fmt.Errorf("%w: %q", ErrUnknownStatus, name)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || len(fields) != 1 {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, data)
	}

	for key, raw := range fields {
		switch key {
		case "SuccessValue":
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("decode SuccessValue: %w", err)
			}
			*s = ExecutionStatus{Kind: StatusSuccessValue, SuccessValue: value}
		case "SuccessReceiptId":
			var id model.CryptoHash
			if err := json.Unmarshal(raw, &id); err != nil {
				return fmt.Errorf("decode SuccessReceiptId: %w", err)
			}
			*s = ExecutionStatus{Kind: StatusSuccessReceiptID, ReceiptID: id}
		case "Failure":
			*s = ExecutionStatus{Kind: StatusFailure, Failure: append(json.RawMessage(nil), raw...)}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownStatus, key)
		}
	}
	return nil
}

func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusSuccessValue:
		return json.Marshal(map[string]string{"SuccessValue": s.SuccessValue})
	case StatusSuccessReceiptID:
		return json.Marshal(map[string]model.CryptoHash{"SuccessReceiptId": s.ReceiptID})
	case StatusFailure:
		failure := s.Failure
		if len(failure) == 0 {
			failure = json.RawMessage("{}")
		}
		return json.Marshal(map[string]json.RawMessage{"Failure": failure})
	default:
		return json.Marshal("Unknown")
	}
}
