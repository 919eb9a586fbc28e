package storage

import "context"

// Entry is one record on a bus channel.
type Entry struct {
	BlockHeight uint64
	Payload     []byte
}

// Bus is an append-only log of named channels that can be trimmed to a maximum length.
type Bus interface {
	// Append adds entries to the end of channel in order, all or nothing.
	Append(ctx context.Context, channel string, entries []Entry) error
	// Trim drops the oldest entries so that channel holds at most maxLen.
	Trim(ctx context.Context, channel string, maxLen int64) error
}
