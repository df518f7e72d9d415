// Package edit implements the edit journal: an ordered, in-memory log
// of positioned byte-buffer writes with a history cursor.
//
// Each entry asserts "positions pos..pos+len(data)-1 hold these bytes"
// at its point in history. Reads scan active entries newest to oldest,
// so the last write wins without maintaining an overlay map; this is
// cheap for interactive editing workloads where the active entry count
// stays small. The cursor separates past from future and gives O(1)
// undo and redo in place of a two-stack scheme.
//
// The journal is pure in-memory state and performs no I/O. Violated
// preconditions (an empty buffer passed to EditMultiple) are programming
// errors and panic.
package edit

import (
	"fmt"

	"hexed/internal/types"
)

// Entry is a single recorded write. Entries are immutable once
// recorded; Data is copied in and must not be mutated by callers.
type Entry struct {
	Pos  types.FilePosition `msgpack:"pos"`
	Data types.Buffer       `msgpack:"data"`
}

// Journal is the history-aware overlay log.
//
// entries[:cursor] are the past (active); entries[cursor:] are the
// future, reachable via Redo. limit is the oldest reachable undo point,
// pinned by operations such as Collate that would make earlier undo
// incoherent.
type Journal struct {
	entries []Entry
	cursor  int
	limit   int

	// bytesWritten tracks len(data) summed over active entries; it
	// shrinks on undo. bytesWrittenAlltime only ever grows with edits
	// and survives ClearNotStats.
	bytesWritten        uint64
	bytesWrittenAlltime uint64
}

// New returns an empty journal.
func New() *Journal {
	return &Journal{}
}

// Edit records a single-byte write at pos.
func (j *Journal) Edit(pos types.FilePosition, value types.Byte) {
	j.EditMultiple(pos, types.Buffer{value})
}

// EditMultiple records a write of data starting at pos, with data[n]
// landing at pos+n. If history has been undone, the future entries are
// discarded first and the cursor returns to the end.
func (j *Journal) EditMultiple(pos types.FilePosition, data types.Buffer) {
	if len(data) == 0 {
		panic("edit: empty buffer passed to EditMultiple")
	}
	if j.cursor < j.limit || j.cursor > len(j.entries) {
		panic(fmt.Sprintf("edit: cursor %d outside [%d, %d]", j.cursor, j.limit, len(j.entries)))
	}

	j.entries = append(j.entries[:j.cursor], Entry{
		Pos:  pos,
		Data: append(types.Buffer(nil), data...),
	})
	j.cursor = len(j.entries)

	n := uint64(len(data))
	j.bytesWritten += n
	j.bytesWrittenAlltime += n
}

// Read returns the byte the newest active entry asserts for pos, or
// absence if no active entry covers it.
func (j *Journal) Read(pos types.FilePosition) (types.Byte, bool) {
	for i := j.cursor - 1; i >= 0; i-- {
		e := j.entries[i]
		if pos >= e.Pos && pos < e.Pos+uint64(len(e.Data)) {
			return e.Data[pos-e.Pos], true
		}
	}
	return 0, false
}

// ReadSingleAssignment is like Read but only matches entries that wrote
// exactly one byte exactly at pos.
func (j *Journal) ReadSingleAssignment(pos types.FilePosition) (types.Byte, bool) {
	for i := j.cursor - 1; i >= 0; i-- {
		e := j.entries[i]
		if e.Pos == pos && len(e.Data) == 1 {
			return e.Data[0], true
		}
	}
	return 0, false
}

// ReadMultiple performs size independent reads starting at pos.
func (j *Journal) ReadMultiple(pos types.FilePosition, size int) []types.NullByte {
	out := make([]types.NullByte, 0, size)
	for i := 0; i < size; i++ {
		b, ok := j.Read(pos + uint64(i))
		out = append(out, types.NullByte{Byte: b, Valid: ok})
	}
	return out
}

// Undo retreats the cursor past the newest active entry and returns it.
// Returns false if the cursor is already at the undo limit.
func (j *Journal) Undo() (Entry, bool) {
	if !j.CanUndo() {
		return Entry{}, false
	}
	j.cursor--
	e := j.entries[j.cursor]
	j.bytesWritten -= uint64(len(e.Data))
	return e, true
}

// Redo advances the cursor over the oldest future entry and returns it.
// Returns false if there is no future.
func (j *Journal) Redo() (Entry, bool) {
	if !j.CanRedo() {
		return Entry{}, false
	}
	e := j.entries[j.cursor]
	j.cursor++
	j.bytesWritten += uint64(len(e.Data))
	return e, true
}

// CanUndo reports whether an active entry exists above the undo limit.
func (j *Journal) CanUndo() bool {
	return j.cursor > 0 && j.cursor > j.limit
}

// CanRedo reports whether any future entries are reachable.
func (j *Journal) CanRedo() bool {
	return j.cursor < len(j.entries)
}

// Clear resets the journal including the lifetime counters.
func (j *Journal) Clear() {
	j.bytesWritten = 0
	j.bytesWrittenAlltime = 0
	j.ClearNotStats()
}

// ClearNotStats resets entries, cursor and limit but preserves both
// byte counters. Used after a destructive save, where the statistics
// should survive the flushed history.
func (j *Journal) ClearNotStats() {
	j.entries = nil
	j.cursor = 0
	j.limit = 0
}

// Limit returns the oldest reachable undo point.
func (j *Journal) Limit() int {
	return j.limit
}
