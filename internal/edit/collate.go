package edit

import (
	"slices"

	"hexed/internal/types"
)

// Collate merges the active entries into one entry per contiguous run
// of overridden positions, keeping the newest byte for each position.
// The future is discarded, and the undo limit is pinned past the merged
// entries: undoing into a collated region would restore an arbitrary
// interleaving, so it is forbidden instead.
//
// BytesWritten is recomputed from the merged entries; the lifetime
// counter is untouched. Collating an empty history is a no-op.
func (j *Journal) Collate() {
	if j.cursor == 0 {
		j.entries = j.entries[:0]
		j.limit = 0
		return
	}

	// Newest byte wins per position.
	bytes := make(map[types.FilePosition]types.Byte)
	for i := j.cursor - 1; i >= 0; i-- {
		e := j.entries[i]
		for k, b := range e.Data {
			pos := e.Pos + uint64(k)
			if _, ok := bytes[pos]; !ok {
				bytes[pos] = b
			}
		}
	}

	positions := make([]types.FilePosition, 0, len(bytes))
	for pos := range bytes {
		positions = append(positions, pos)
	}
	slices.Sort(positions)

	var merged []Entry
	for _, pos := range positions {
		if n := len(merged); n > 0 && pos == merged[n-1].Pos+uint64(len(merged[n-1].Data)) {
			merged[n-1].Data = append(merged[n-1].Data, bytes[pos])
			continue
		}
		merged = append(merged, Entry{Pos: pos, Data: types.Buffer{bytes[pos]}})
	}

	j.entries = merged
	j.cursor = len(merged)
	j.limit = len(merged)
	j.bytesWritten = j.bytesStoredRange(0, len(merged))
}
