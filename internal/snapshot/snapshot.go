// Package snapshot persists the edit journal between sessions.
//
// A snapshot file is a 4-byte header followed by a zstd-compressed
// msgpack payload holding the full journal state: entries, cursor, undo
// limit and both byte counters. Restoring a snapshot resumes an editing
// session exactly where it left off, history included, without the
// underlying file having been touched.
//
// Header layout (4 bytes):
//
//	signature (1 byte, 'x' = 0x78)
//	type (1 byte, 'j' = journal)
//	version (1 byte)
//	flags (1 byte, reserved)
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"hexed/internal/edit"
)

const (
	Signature   = 'x'
	TypeJournal = 'j'
	Version     = 1
	HeaderSize  = 4
)

var (
	ErrHeaderTooSmall    = errors.New("snapshot header too small")
	ErrSignatureMismatch = errors.New("snapshot signature mismatch")
	ErrTypeMismatch      = errors.New("snapshot type mismatch")
	ErrVersionMismatch   = errors.New("snapshot version mismatch")
)

// zstdDec is a package-level decoder, concurrent-safe, always available
// for reads.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("zstd: init decoder: " + err.Error())
	}
}

// Snapshot is a captured journal with its identity and save time.
type Snapshot struct {
	ID      uuid.UUID  `msgpack:"id"`
	SavedAt time.Time  `msgpack:"saved_at"`
	State   edit.State `msgpack:"state"`
}

// Write captures st into path, replacing any previous snapshot there.
// The file is written to a temp sibling and renamed into place so a
// crash mid-write never leaves a torn snapshot. Returns the snapshot's
// assigned id.
func Write(path string, st edit.State, now time.Time) (uuid.UUID, error) {
	snap := Snapshot{ID: uuid.New(), SavedAt: now, State: st}

	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return uuid.Nil, fmt.Errorf("snapshot: encode: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("snapshot: init encoder: %w", err)
	}
	body := enc.EncodeAll(payload, make([]byte, 0, len(payload)/2+HeaderSize))
	enc.Close()

	buf := make([]byte, 0, HeaderSize+len(body))
	buf = append(buf, Signature, TypeJournal, Version, 0)
	buf = append(buf, body...)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return uuid.Nil, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return uuid.Nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return uuid.Nil, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return uuid.Nil, err
	}
	return snap.ID, nil
}

// Read loads and validates the snapshot at path.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	if len(data) < HeaderSize {
		return Snapshot{}, ErrHeaderTooSmall
	}
	if data[0] != Signature {
		return Snapshot{}, ErrSignatureMismatch
	}
	if data[1] != TypeJournal {
		return Snapshot{}, fmt.Errorf("%w: %#x", ErrTypeMismatch, data[1])
	}
	if data[2] != Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrVersionMismatch, data[2])
	}

	payload, err := zstdDec.DecodeAll(data[HeaderSize:], nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decompress: %w", err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return snap, nil
}
