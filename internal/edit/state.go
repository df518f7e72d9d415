package edit

// State is a snapshot of the journal: entries, cursor, undo limit and
// both byte counters. It is the unit of journal persistence.
type State struct {
	Entries             []Entry `msgpack:"entries"`
	Cursor              int     `msgpack:"cursor"`
	Limit               int     `msgpack:"limit"`
	BytesWritten        uint64  `msgpack:"bytes_written"`
	BytesWrittenAlltime uint64  `msgpack:"bytes_written_alltime"`
}

// State returns a deep copy of the journal's current state.
func (j *Journal) State() State {
	entries := make([]Entry, len(j.entries))
	for i, e := range j.entries {
		entries[i] = Entry{Pos: e.Pos, Data: append([]byte(nil), e.Data...)}
	}
	return State{
		Entries:             entries,
		Cursor:              j.cursor,
		Limit:               j.limit,
		BytesWritten:        j.bytesWritten,
		BytesWrittenAlltime: j.bytesWrittenAlltime,
	}
}

// Restore replaces the journal's state wholesale with a previously
// captured snapshot. The snapshot's counters are adopted as-is.
func (j *Journal) Restore(st State) {
	j.entries = make([]Entry, len(st.Entries))
	for i, e := range st.Entries {
		j.entries[i] = Entry{Pos: e.Pos, Data: append([]byte(nil), e.Data...)}
	}
	j.cursor = st.Cursor
	j.limit = st.Limit
	if j.cursor < 0 || j.cursor > len(j.entries) {
		j.cursor = len(j.entries)
	}
	if j.limit < 0 || j.limit > j.cursor {
		j.limit = 0
	}
	j.bytesWritten = st.BytesWritten
	j.bytesWrittenAlltime = st.BytesWrittenAlltime
}

// Entries returns the stored entries in recording order, including
// future entries beyond the cursor. The destructive save iterates this
// order verbatim.
func (j *Journal) Entries() []Entry {
	return j.entries
}
