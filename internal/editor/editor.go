// Package editor composes the edit journal and the chunk cache into a
// single edited view of a file.
//
// A read at position p consults the journal first; a journal hit wins
// over the file-backed byte. Writes only ever touch the journal; the
// cache keeps serving the bytes as stored until a destructive save
// flushes the journal into the file and invalidates every chunk.
//
// The editor owns the file handle for the duration of a session and is
// single-threaded: every operation runs to completion on the caller's
// goroutine, and a concurrent variant would wrap the whole editor in
// one external mutex.
package editor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"hexed/internal/chunk"
	"hexed/internal/edit"
	"hexed/internal/logging"
	"hexed/internal/types"
)

var (
	// ErrOpen means the file could not be opened.
	ErrOpen = errors.New("open failed")
	// ErrClose means the stream failed on close.
	ErrClose = errors.New("close failed")
	// ErrWrite means a destructive save write failed; the file may be
	// partially written.
	ErrWrite = errors.New("write failed")
	// ErrNoFile means the operation needs an open file.
	ErrNoFile = errors.New("no open file")
)

// Config configures an editing session.
type Config struct {
	// Filename is the file to edit.
	Filename string

	// AllowWriting permits SaveHistoryDestructive to run. Off by
	// default: a viewer should not be able to clobber its input.
	AllowWriting bool

	// StartPosition is the absolute offset of session position 0,
	// enabling windowed editing of a file region.
	StartPosition types.AbsoluteFilePosition

	// EndPosition optionally bounds the window from above.
	EndPosition *types.AbsoluteFilePosition

	// MaxChunkMemory and ChunkSize tune the cache; zero means the
	// cache defaults (10 KiB budget, 1 KiB pages).
	MaxChunkMemory types.ChunkSize
	ChunkSize      types.ChunkSize

	// Now is the clock for chunk touch stamps. Defaults to time.Now.
	Now func() time.Time

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Editor is the session facade over one file.
type Editor struct {
	cfg      Config
	filename string
	allowWR  bool

	file    *os.File
	journal *edit.Journal
	cache   *chunk.Cache

	logger *slog.Logger
}

// Open starts an editing session on cfg.Filename.
func Open(cfg Config) (*Editor, error) {
	logger := logging.Default(cfg.Logger).With(
		"component", "editor",
		"session", uuid.NewString(),
	)
	e := &Editor{
		cfg:      cfg,
		filename: cfg.Filename,
		allowWR:  cfg.AllowWriting,
		journal:  edit.New(),
		logger:   logger,
	}
	if err := e.openFile(); err != nil {
		return nil, err
	}
	e.logger.Info("opened file",
		"filename", e.filename,
		"writable", e.allowWR,
		"start", cfg.StartPosition,
	)
	return e, nil
}

// openFile opens e.filename per the current write mode and rebuilds the
// cache over the fresh handle. The journal is left alone; LoadFile and
// CloseFile decide when history is discarded.
func (e *Editor) openFile() error {
	flag := os.O_RDONLY
	if e.allowWR {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(e.filename, flag, 0)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOpen, e.filename, err)
	}
	e.file = f
	e.cache = chunk.NewCache(chunk.Config{
		File:           f,
		StartPosition:  e.cfg.StartPosition,
		EndPosition:    e.cfg.EndPosition,
		ChunkSize:      e.cfg.ChunkSize,
		MaxChunkMemory: e.cfg.MaxChunkMemory,
		Now:            e.cfg.Now,
		Logger:         e.cfg.Logger,
	})
	return nil
}

// HasFile reports whether a file is currently open.
func (e *Editor) HasFile() bool {
	return e.file != nil
}

// Filename returns the path of the file being edited.
func (e *Editor) Filename() string {
	return e.filename
}

// StartPosition returns the absolute offset of session position 0.
func (e *Editor) StartPosition() types.AbsoluteFilePosition {
	return e.cfg.StartPosition
}

// LoadFile closes any current file, discarding edits and chunks, and
// starts over on filename.
func (e *Editor) LoadFile(filename string) error {
	if e.HasFile() {
		if err := e.CloseFile(); err != nil {
			return err
		}
	}
	e.filename = filename
	return e.openFile()
}

// CloseFile closes the underlying file and throws away all session
// state: the journal (statistics included) and every chunk. Unsaved
// edits are NOT flushed.
func (e *Editor) CloseFile() error {
	if !e.HasFile() {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	e.journal.Clear()
	e.cache.InvalidateChunks()
	e.logger.Info("closed file", "filename", e.filename)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrClose, e.filename, err)
	}
	return nil
}

// FileSize returns the absolute size of the underlying file.
func (e *Editor) FileSize() (uint64, error) {
	if !e.HasFile() {
		return 0, ErrNoFile
	}
	info, err := e.file.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// FileEnd returns the session-relative end: the file size minus the
// window's start, clamped at zero.
func (e *Editor) FileEnd() (uint64, error) {
	size, err := e.FileSize()
	if err != nil {
		return 0, err
	}
	if size <= e.cfg.StartPosition {
		return 0, nil
	}
	return size - e.cfg.StartPosition, nil
}

// Journal exposes the underlying journal for statistics and snapshots.
// Mutating it directly bypasses the facade; most callers only read.
func (e *Editor) Journal() *edit.Journal {
	return e.journal
}

// ChunkCount returns the number of resident cache chunks.
func (e *Editor) ChunkCount() int {
	return e.cache.Count()
}

// HasChunks reports whether any chunks are resident.
func (e *Editor) HasChunks() bool {
	return e.cache.Count() > 0
}

// InvalidateChunks drops all resident chunks, forcing the next reads to
// reload from the file. Used when the file changed underneath us.
func (e *Editor) InvalidateChunks() {
	e.cache.InvalidateChunks()
}

// Read returns the edited view's byte at pos: the journal's value when
// one exists, otherwise the file's. Absence means past EOF or outside
// the window.
func (e *Editor) Read(pos types.FilePosition) (types.Byte, bool, error) {
	if b, ok := e.journal.Read(pos); ok {
		return b, true, nil
	}
	return e.ReadRaw(pos)
}

// ReadRaw returns the byte as stored in the file, ignoring edits.
func (e *Editor) ReadRaw(pos types.FilePosition) (types.Byte, bool, error) {
	if !e.HasFile() {
		return 0, false, ErrNoFile
	}
	return e.cache.ReadRaw(pos)
}

// ReadMultiple performs size independent edited-view reads from pos.
func (e *Editor) ReadMultiple(pos types.FilePosition, size int) ([]types.NullByte, error) {
	out := make([]types.NullByte, 0, size)
	for i := 0; i < size; i++ {
		b, ok, err := e.Read(pos + uint64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, types.NullByte{Byte: b, Valid: ok})
	}
	return out, nil
}

// ReadMultipleRaw is ReadMultiple over the stored bytes only.
func (e *Editor) ReadMultipleRaw(pos types.FilePosition, size int) ([]types.NullByte, error) {
	if !e.HasFile() {
		return nil, ErrNoFile
	}
	return e.cache.ReadMultipleRaw(pos, size)
}

// ReadMultipleCutoff reads up to size bytes from pos, stopping at the
// first absence. Bulk readers use this where a trailing EOF is
// expected: the result is the concrete prefix.
func (e *Editor) ReadMultipleCutoff(pos types.FilePosition, size int) (types.Buffer, error) {
	out := make(types.Buffer, 0, size)
	for i := 0; i < size; i++ {
		b, ok, err := e.Read(pos + uint64(i))
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

// Edit records a single-byte write at pos. The cache is untouched.
func (e *Editor) Edit(pos types.FilePosition, value types.Byte) {
	e.journal.Edit(pos, value)
}

// EditMultiple records a write of data starting at pos.
func (e *Editor) EditMultiple(pos types.FilePosition, data types.Buffer) {
	e.journal.EditMultiple(pos, data)
}

// Undo retreats one step in history and returns the undone entry. The
// next read naturally reflects the older state.
func (e *Editor) Undo() (edit.Entry, bool) {
	return e.journal.Undo()
}

// Redo advances one step in history and returns the redone entry.
func (e *Editor) Redo() (edit.Entry, bool) {
	return e.journal.Redo()
}

// CanUndo reports whether an undo step exists.
func (e *Editor) CanUndo() bool {
	return e.journal.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (e *Editor) CanRedo() bool {
	return e.journal.CanRedo()
}

// HasUnsavedEdits reports whether any active edit exists. This is a
// conservative dirty flag: active entries already flushed by an earlier
// save would still report dirty if saves kept history, and a journal
// undone to the start reports clean. A saved high-water mark in the
// journal would tighten it.
func (e *Editor) HasUnsavedEdits() bool {
	return e.CanUndo()
}

// SaveHistoryDestructive flushes the journal into the file in recorded
// order and discards it, keeping lifetime statistics. No-op when
// writing is disallowed.
//
// The flush covers every stored entry, including future entries beyond
// the cursor: an edit undone but not truncated still reaches the file.
// A failed write surfaces immediately; earlier writes stay applied.
func (e *Editor) SaveHistoryDestructive() error {
	if !e.allowWR {
		return nil
	}
	if !e.HasFile() {
		return ErrNoFile
	}

	entries := e.journal.Entries()
	for _, entry := range entries {
		offset := e.cfg.StartPosition + entry.Pos
		if offset > math.MaxInt64 {
			return fmt.Errorf("%w: position %d out of range", ErrWrite, offset)
		}
		if _, err := e.file.WriteAt(entry.Data, int64(offset)); err != nil {
			return fmt.Errorf("%w: %d bytes at %d: %v", ErrWrite, len(entry.Data), offset, err)
		}
	}

	e.cache.InvalidateChunks()
	e.journal.ClearNotStats()
	e.logger.Info("saved edits", "filename", e.filename, "entries", len(entries))
	return nil
}

// SaveAsHistoryDestructive copies the current file to newpath, swaps
// the session over to the copy with writing enabled, and flushes the
// journal into it. Saving over an existing file is permitted: the copy
// step skips an already-existing target and the flush then overwrites
// its contents in place.
func (e *Editor) SaveAsHistoryDestructive(newpath string) error {
	if !e.HasFile() {
		return ErrNoFile
	}

	// Writing to a fresh copy is allowed even for read-only sessions.
	if err := copyFileNew(e.filename, newpath); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrClose, e.filename, err)
	}
	e.file = nil
	e.filename = newpath
	e.allowWR = true

	if err := e.openFile(); err != nil {
		return err
	}
	return e.SaveHistoryDestructive()
}

// copyFileNew copies src to dst, failing with fs.ErrExist when dst is
// already present.
func copyFileNew(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
