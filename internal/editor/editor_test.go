package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hexed/internal/types"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func seq(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func openTest(t *testing.T, cfg Config) *Editor {
	t.Helper()
	e, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = e.CloseFile() })
	return e
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(Config{Filename: filepath.Join(t.TempDir(), "nope.bin")})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestOverlayRead(t *testing.T) {
	path := writeTempFile(t, seq(32))
	e := openTest(t, Config{Filename: path})

	b, ok, err := e.Read(5)
	if err != nil || !ok || b != 5 {
		t.Fatalf("expected stored byte 5, got %d ok=%v err=%v", b, ok, err)
	}

	e.Edit(5, 0xab)
	b, ok, err = e.Read(5)
	if err != nil || !ok || b != 0xab {
		t.Fatalf("expected edited byte 0xab, got %#x ok=%v err=%v", b, ok, err)
	}

	// The raw view ignores the journal.
	b, ok, err = e.ReadRaw(5)
	if err != nil || !ok || b != 5 {
		t.Fatalf("expected raw byte 5, got %d ok=%v err=%v", b, ok, err)
	}
}

func TestEditThenReadAlwaysWins(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	// Past EOF too: the journal knows no file length.
	e.Edit(100, 7)
	b, ok, err := e.Read(100)
	if err != nil || !ok || b != 7 {
		t.Fatalf("expected edit past EOF to read back, got %d ok=%v err=%v", b, ok, err)
	}
}

func TestWindowedSession(t *testing.T) {
	path := writeTempFile(t, seq(64))
	end := types.AbsoluteFilePosition(60)
	e := openTest(t, Config{Filename: path, StartPosition: 2, EndPosition: &end})

	b, ok, err := e.Read(0)
	if err != nil || !ok || b != 2 {
		t.Fatalf("expected absolute byte 2 at session 0, got %d ok=%v err=%v", b, ok, err)
	}

	fileEnd, err := e.FileEnd()
	if err != nil {
		t.Fatalf("file end: %v", err)
	}
	if fileEnd != 62 {
		t.Fatalf("expected session end 62, got %d", fileEnd)
	}

	if _, ok, err := e.Read(58); err != nil || ok {
		t.Fatalf("expected absence at window bound, got ok=%v err=%v", ok, err)
	}
}

func TestFileEndClampsToZero(t *testing.T) {
	path := writeTempFile(t, seq(4))
	e := openTest(t, Config{Filename: path, StartPosition: 100})

	fileEnd, err := e.FileEnd()
	if err != nil {
		t.Fatalf("file end: %v", err)
	}
	if fileEnd != 0 {
		t.Fatalf("expected clamped end 0, got %d", fileEnd)
	}
}

func TestReadMultipleCutoff(t *testing.T) {
	path := writeTempFile(t, seq(10))
	e := openTest(t, Config{Filename: path, ChunkSize: 8, MaxChunkMemory: 64})

	e.Edit(3, 0xff)
	got, err := e.ReadMultipleCutoff(8, 8)
	if err != nil {
		t.Fatalf("cutoff read: %v", err)
	}
	if len(got) != 2 || got[0] != 8 || got[1] != 9 {
		t.Fatalf("expected prefix [8 9], got %v", got)
	}

	all, err := e.ReadMultipleCutoff(0, 4)
	if err != nil {
		t.Fatalf("cutoff read: %v", err)
	}
	if len(all) != 4 || all[3] != 0xff {
		t.Fatalf("expected 4 bytes with edit applied, got %v", all)
	}
}

func TestReadMultipleMixesJournalAndFile(t *testing.T) {
	path := writeTempFile(t, seq(4))
	e := openTest(t, Config{Filename: path})

	e.Edit(1, 0xcc)
	got, err := e.ReadMultiple(0, 6)
	if err != nil {
		t.Fatalf("read multiple: %v", err)
	}
	want := []types.NullByte{
		{Byte: 0, Valid: true},
		{Byte: 0xcc, Valid: true},
		{Byte: 2, Valid: true},
		{Byte: 3, Valid: true},
		{},
		{},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSaveHistoryDestructive(t *testing.T) {
	path := writeTempFile(t, seq(16))
	e := openTest(t, Config{Filename: path, AllowWriting: true})

	e.Edit(0, 0xaa)
	e.EditMultiple(4, types.Buffer{1, 2, 3})
	if !e.HasUnsavedEdits() {
		t.Fatal("expected unsaved edits")
	}

	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if e.HasUnsavedEdits() {
		t.Fatal("save should clear the journal")
	}
	if e.Journal().BytesWrittenAlltime() != 4 {
		t.Fatalf("lifetime counter should survive the save, got %d",
			e.Journal().BytesWrittenAlltime())
	}
	if e.HasChunks() {
		t.Fatal("save must invalidate the cache")
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if onDisk[0] != 0xaa || onDisk[4] != 1 || onDisk[5] != 2 || onDisk[6] != 3 {
		t.Fatalf("edits not flushed: %v", onDisk[:8])
	}

	// The edited view now comes straight from the file.
	b, ok, err := e.Read(0)
	if err != nil || !ok || b != 0xaa {
		t.Fatalf("expected saved byte 0xaa, got %#x ok=%v err=%v", b, ok, err)
	}
}

func TestSaveRespectsWindowOffset(t *testing.T) {
	path := writeTempFile(t, seq(16))
	e := openTest(t, Config{Filename: path, AllowWriting: true, StartPosition: 4})

	e.Edit(0, 0xee)
	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("save: %v", err)
	}

	onDisk, _ := os.ReadFile(path)
	if onDisk[4] != 0xee {
		t.Fatalf("expected absolute byte 4 rewritten, got %v", onDisk[:8])
	}
	if onDisk[0] != 0 {
		t.Fatalf("byte 0 must be untouched, got %#x", onDisk[0])
	}
}

func TestSaveNoopWhenReadOnly(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	e.Edit(0, 0xff)
	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("read-only save should no-op, got %v", err)
	}

	onDisk, _ := os.ReadFile(path)
	if onDisk[0] != 0 {
		t.Fatal("read-only save must not touch the file")
	}
	if !e.HasUnsavedEdits() {
		t.Fatal("read-only save must keep the journal")
	}
}

func TestSaveFlushesUndoneEdits(t *testing.T) {
	// The flush iterates entries in storage order, including future
	// entries beyond the cursor: an undone edit still reaches the file.
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path, AllowWriting: true})

	e.Edit(0, 0x11)
	e.Edit(1, 0x22)
	e.Undo()

	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("save: %v", err)
	}
	onDisk, _ := os.ReadFile(path)
	if onDisk[0] != 0x11 || onDisk[1] != 0x22 {
		t.Fatalf("expected both edits flushed, got %v", onDisk[:2])
	}
}

func TestSaveOrderLastWriteWins(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path, AllowWriting: true})

	e.Edit(2, 0x01)
	e.Edit(2, 0x02)
	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("save: %v", err)
	}
	onDisk, _ := os.ReadFile(path)
	if onDisk[2] != 0x02 {
		t.Fatalf("expected the newest write to land last, got %#x", onDisk[2])
	}
}

func TestSaveAsFromReadOnlySession(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	e.Edit(0, 0x99)
	newpath := filepath.Join(t.TempDir(), "copy.bin")
	if err := e.SaveAsHistoryDestructive(newpath); err != nil {
		t.Fatalf("save as: %v", err)
	}

	if e.Filename() != newpath {
		t.Fatalf("session should follow the copy, got %s", e.Filename())
	}

	copied, err := os.ReadFile(newpath)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if copied[0] != 0x99 || copied[1] != 1 {
		t.Fatalf("copy should carry the edit over the original bytes: %v", copied[:2])
	}

	original, _ := os.ReadFile(path)
	if original[0] != 0 {
		t.Fatal("original file must stay untouched")
	}

	// The session is now writable: further saves land in the copy.
	e.Edit(3, 0x77)
	if err := e.SaveHistoryDestructive(); err != nil {
		t.Fatalf("follow-up save: %v", err)
	}
	copied, _ = os.ReadFile(newpath)
	if copied[3] != 0x77 {
		t.Fatalf("follow-up save missed the copy: %v", copied[:4])
	}
}

func TestSaveAsOntoExistingTarget(t *testing.T) {
	path := writeTempFile(t, seq(8))
	existing := writeTempFile(t, []byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0})

	e := openTest(t, Config{Filename: path})
	e.Edit(0, 0x42)

	if err := e.SaveAsHistoryDestructive(existing); err != nil {
		t.Fatalf("save as onto existing file: %v", err)
	}

	// The pre-existing contents are kept where not edited; the copy
	// step is skipped for an existing target.
	onDisk, _ := os.ReadFile(existing)
	if onDisk[0] != 0x42 || onDisk[1] != 0xad {
		t.Fatalf("expected edit over the pre-existing bytes, got %v", onDisk[:2])
	}
}

func TestCloseFileDiscardsSession(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	e.Edit(0, 1)
	if _, _, err := e.Read(0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := e.CloseFile(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if e.HasFile() || e.HasChunks() || e.CanUndo() {
		t.Fatal("close must discard file, chunks and history")
	}
	if e.Journal().BytesWrittenAlltime() != 0 {
		t.Fatal("close clears statistics too")
	}
	if _, _, err := e.Read(0); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile after close, got %v", err)
	}
}

func TestLoadFileSwapsSessions(t *testing.T) {
	first := writeTempFile(t, []byte{1, 1, 1, 1})
	second := writeTempFile(t, []byte{2, 2, 2, 2})

	e := openTest(t, Config{Filename: first})
	e.Edit(0, 0xff)

	if err := e.LoadFile(second); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if e.CanUndo() {
		t.Fatal("history must not leak across files")
	}
	b, ok, err := e.Read(0)
	if err != nil || !ok || b != 2 {
		t.Fatalf("expected byte from second file, got %d ok=%v err=%v", b, ok, err)
	}
}

func TestUndoRedoThroughFacade(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	e.Edit(0, 0x10)
	entry, ok := e.Undo()
	if !ok || entry.Pos != 0 || entry.Data[0] != 0x10 {
		t.Fatalf("undo: expected (0,[0x10]), got %+v ok=%v", entry, ok)
	}

	// The next read reflects the older state without cache involvement.
	b, ok, err := e.Read(0)
	if err != nil || !ok || b != 0 {
		t.Fatalf("expected stored byte 0 after undo, got %d ok=%v err=%v", b, ok, err)
	}

	if _, ok := e.Redo(); !ok {
		t.Fatal("redo failed")
	}
	b, _, _ = e.Read(0)
	if b != 0x10 {
		t.Fatalf("expected edited byte back after redo, got %#x", b)
	}
}

func TestInvalidateChunksForcesReload(t *testing.T) {
	path := writeTempFile(t, seq(8))
	e := openTest(t, Config{Filename: path})

	if _, _, err := e.Read(0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !e.HasChunks() {
		t.Fatal("expected a resident chunk")
	}

	// Simulate an external writer, then invalidate.
	if err := os.WriteFile(path, []byte{9, 9, 9, 9, 9, 9, 9, 9}, 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	e.InvalidateChunks()

	b, ok, err := e.Read(0)
	if err != nil || !ok || b != 9 {
		t.Fatalf("expected reloaded byte 9, got %d ok=%v err=%v", b, ok, err)
	}
}
