package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"txIndexer/internal/metrics"
	"txIndexer/internal/storage"
)

// Discipline selects when emitted events reach the bus.
type Discipline string

const (
	// DisciplineBatched holds a block's events and appends them together at block end.
	DisciplineBatched Discipline = "batched"
	// DisciplineImmediate appends and trims on every event.
	DisciplineImmediate Discipline = "immediate"
)

func ParseDiscipline(input string) (Discipline, error) {
	switch d := Discipline(strings.ToLower(strings.TrimSpace(input))); d {
	case DisciplineBatched, DisciplineImmediate:
		return d, nil
	case "":
		return DisciplineBatched, nil
	default:
		return "", fmt.Errorf("unknown discipline %q (want batched or immediate)", input)
	}
}

// Emitter delivers the events of one channel to the bus.
type Emitter interface {
	// Emit hands over one event built while processing block height.
	Emit(ctx context.Context, height uint64, event any) error
	// Flush is called once at the end of block height.
	Flush(ctx context.Context, height uint64) error
}

// NewEmitter returns the emitter implementing d for channel.
func NewEmitter(d Discipline, bus storage.Bus, channel string, maxLen int64) (Emitter, error) {
	if bus == nil {
		return nil, fmt.Errorf("bus is nil")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("max stream size must be greater than zero")
	}
	switch d {
	case DisciplineBatched:
		return NewBatchedEmitter(bus, channel, maxLen), nil
	case DisciplineImmediate:
		return NewImmediateEmitter(bus, channel, maxLen), nil
	default:
		return nil, fmt.Errorf("unknown discipline %q", d)
	}
}

func encodeEntry(height uint64, event any) (storage.Entry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("marshal event: %w", err)
	}
	return storage.Entry{BlockHeight: height, Payload: payload}, nil
}

// appendAndTrim appends entries (possibly none) and trims the channel afterwards.
func appendAndTrim(ctx context.Context, bus storage.Bus, channel string, maxLen int64, entries []storage.Entry) error {
	start := time.Now()
	if err := bus.Append(ctx, channel, entries); err != nil {
		return fmt.Errorf("append to %s: %w", channel, err)
	}
	if err := bus.Trim(ctx, channel, maxLen); err != nil {
		return fmt.Errorf("trim %s: %w", channel, err)
	}
	metrics.EventsEmitted.WithLabelValues(channel).Add(float64(len(entries)))
	metrics.FlushDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())
	return nil
}

// BatchedEmitter buffers one block of events and makes them visible together on Flush.
// Not safe for concurrent use.
type BatchedEmitter struct {
	bus     storage.Bus
	channel string
	maxLen  int64

	height uint64
	batch  []storage.Entry
}

func NewBatchedEmitter(bus storage.Bus, channel string, maxLen int64) *BatchedEmitter {
	return &BatchedEmitter{bus: bus, channel: channel, maxLen: maxLen}
}

func (e *BatchedEmitter) Emit(_ context.Context, height uint64, event any) error {
	if len(e.batch) > 0 && height != e.height {
		return fmt.Errorf("%w: %s got event for block %d while holding block %d", ErrCallbackOrder, e.channel, height, e.height)
	}
	entry, err := encodeEntry(height, event)
	if err != nil {
		return err
	}
	e.height = height
	e.batch = append(e.batch, entry)
	return nil
}

// Flush appends the held batch in one operation, then trims. The batch is kept when
// the bus fails.
func (e *BatchedEmitter) Flush(ctx context.Context, height uint64) error {
	if len(e.batch) > 0 && height != e.height {
		return fmt.Errorf("%w: %s flush for block %d while holding block %d", ErrCallbackOrder, e.channel, height, e.height)
	}
	if err := appendAndTrim(ctx, e.bus, e.channel, e.maxLen, e.batch); err != nil {
		return err
	}
	e.batch = nil
	return nil
}

// Pending returns the number of events waiting for Flush.
func (e *BatchedEmitter) Pending() int {
	return len(e.batch)
}

// ImmediateEmitter appends every event as soon as it is emitted. A crash in the middle
// of a block leaves only part of that block on the bus.
type ImmediateEmitter struct {
	bus     storage.Bus
	channel string
	maxLen  int64
}

func NewImmediateEmitter(bus storage.Bus, channel string, maxLen int64) *ImmediateEmitter {
	return &ImmediateEmitter{bus: bus, channel: channel, maxLen: maxLen}
}

func (e *ImmediateEmitter) Emit(ctx context.Context, height uint64, event any) error {
	entry, err := encodeEntry(height, event)
	if err != nil {
		return err
	}
	return appendAndTrim(ctx, e.bus, e.channel, e.maxLen, []storage.Entry{entry})
}

func (e *ImmediateEmitter) Flush(context.Context, uint64) error {
	return nil
}
