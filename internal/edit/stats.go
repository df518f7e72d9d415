package edit

import "hexed/internal/types"

// EntryCount returns the number of stored entries, past and future.
func (j *Journal) EntryCount() int {
	return len(j.entries)
}

// PastEntryCount returns the number of active entries.
func (j *Journal) PastEntryCount() int {
	return j.cursor
}

// FutureEntryCount returns the number of entries reachable via Redo.
func (j *Journal) FutureEntryCount() int {
	return len(j.entries) - j.cursor
}

// BytesStored returns the byte count held across all entries, past and
// future. Unlike BytesWrittenAlltime this can shrink, e.g. when Collate
// merges entries.
func (j *Journal) BytesStored() uint64 {
	return j.bytesStoredRange(0, len(j.entries))
}

// BytesStoredPast returns the byte count held by active entries.
func (j *Journal) BytesStoredPast() uint64 {
	return j.bytesStoredRange(0, j.cursor)
}

// BytesStoredFuture returns the byte count held by future entries.
func (j *Journal) BytesStoredFuture() uint64 {
	return j.bytesStoredRange(j.cursor, len(j.entries))
}

func (j *Journal) bytesStoredRange(from, to int) uint64 {
	var n uint64
	for _, e := range j.entries[from:to] {
		n += uint64(len(e.Data))
	}
	return n
}

// BytesWritten returns the byte count of active writes. Undo subtracts
// the undone entry's length; redo adds it back.
func (j *Journal) BytesWritten() uint64 {
	return j.bytesWritten
}

// BytesWrittenAlltime returns the byte count over every edit ever
// recorded, including ones since undone or flushed by a save.
func (j *Journal) BytesWrittenAlltime() uint64 {
	return j.bytesWrittenAlltime
}

// BytesFilledIn returns the number of distinct positions currently
// overridden by active entries. Two writes to the same position count
// once.
func (j *Journal) BytesFilledIn() int {
	seen := make(map[types.FilePosition]struct{})
	for _, e := range j.entries[:j.cursor] {
		for i := range e.Data {
			seen[e.Pos+uint64(i)] = struct{}{}
		}
	}
	return len(seen)
}
