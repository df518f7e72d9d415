package chunk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"hexed/internal/logging"
	"hexed/internal/types"
)

var (
	// ErrSeek means a chunk's file offset could not be addressed.
	ErrSeek = errors.New("seek failed")
	// ErrRead means the file read failed without hitting EOF.
	ErrRead = errors.New("read failed")
	// ErrEOFRetry means the EOF-shrink retry itself came up short,
	// which indicates corruption or a truncation race.
	ErrEOFRetry = errors.New("eof retry failed")
	// ErrChunkResident means a load was requested for a position an
	// existing chunk already covers.
	ErrChunkResident = errors.New("chunk already resident")
	// ErrUnknownChunk means a chunk id does not name a resident chunk.
	ErrUnknownChunk = errors.New("unknown chunk id")
)

// DefaultChunkSize and DefaultMaxChunkMemory apply when a Config leaves
// them zero. The budget fits ten default chunks; keeping at least three
// resident lets prefetch hide load latency.
const (
	DefaultChunkSize      types.ChunkSize = 1024
	DefaultMaxChunkMemory types.ChunkSize = 10 * 1024
)

// Config configures a Cache.
type Config struct {
	// File is the underlying random-access byte source.
	File io.ReaderAt

	// StartPosition is the absolute offset of session position 0.
	StartPosition types.AbsoluteFilePosition

	// EndPosition optionally bounds the window; session positions at or
	// past EndPosition-StartPosition read as absent.
	EndPosition *types.AbsoluteFilePosition

	// ChunkSize is the page length. Defaults to DefaultChunkSize.
	ChunkSize types.ChunkSize

	// MaxChunkMemory is the eviction budget in bytes. Defaults to
	// DefaultMaxChunkMemory.
	MaxChunkMemory types.ChunkSize

	// Now is the clock used for touch stamps. Defaults to time.Now.
	Now func() time.Time

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Cache maps file regions to resident chunks keyed by id. Chunks are
// born on first miss, touched on every hit, and die when evicted or the
// cache is invalidated. The cache never sees edits; it serves the
// file's bytes as stored.
type Cache struct {
	file      io.ReaderAt
	start     types.AbsoluteFilePosition
	end       *types.AbsoluteFilePosition
	chunkSize types.ChunkSize
	maxMemory types.ChunkSize

	chunks map[types.ChunkID]*Chunk
	nextID types.ChunkID

	now    func() time.Time
	logger *slog.Logger
}

// NewCache builds a cache over cfg.File. The file handle is borrowed,
// not owned; closing it is the caller's concern.
func NewCache(cfg Config) *Cache {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxChunkMemory == 0 {
		cfg.MaxChunkMemory = DefaultMaxChunkMemory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		file:      cfg.File,
		start:     cfg.StartPosition,
		end:       cfg.EndPosition,
		chunkSize: cfg.ChunkSize,
		maxMemory: cfg.MaxChunkMemory,
		chunks:    make(map[types.ChunkID]*Chunk),
		now:       cfg.Now,
		logger:    logging.Default(cfg.Logger).With("component", "chunk-cache"),
	}
}

func (c *Cache) nowMillis() uint64 {
	return uint64(c.now().UnixMilli())
}

// ChunkSize returns the configured page length.
func (c *Cache) ChunkSize() types.ChunkSize {
	return c.chunkSize
}

// Count returns the number of resident chunks.
func (c *Cache) Count() int {
	return len(c.chunks)
}

// Has reports whether id names a resident chunk.
func (c *Cache) Has(id types.ChunkID) bool {
	_, ok := c.chunks[id]
	return ok
}

// AlignedStart returns the largest chunk-aligned offset at or below
// pos: the start of the chunk that would cover it.
func (c *Cache) AlignedStart(pos types.FilePosition) types.FilePosition {
	return pos - pos%c.chunkSize
}

// FindChunk returns the id of the resident chunk whose declared range
// covers pos, if any.
func (c *Cache) FindChunk(pos types.FilePosition) (types.ChunkID, bool) {
	for id, ch := range c.chunks {
		if ch.Covers(pos) {
			return id, true
		}
	}
	return 0, false
}

// loadChunk allocates an id and loads the page starting at start. The
// caller must have established that no resident chunk covers start.
func (c *Cache) loadChunk(start types.FilePosition, size types.ChunkSize) (types.ChunkID, error) {
	if _, ok := c.FindChunk(start); ok {
		return 0, fmt.Errorf("%w: position %d", ErrChunkResident, start)
	}

	id := c.nextID
	c.nextID++
	ch := &Chunk{Start: start, Size: c.chunkSize}
	c.chunks[id] = ch

	if err := c.loadIntoChunk(start, size, id, ch, false); err != nil {
		return 0, err
	}
	return id, nil
}

// loadIntoChunk reads size bytes at the chunk's offset, tolerating EOF:
// a short read retries once at the returned byte count, which should
// then succeed cleanly. A short retry means the file shrank underneath
// us, and is fatal.
func (c *Cache) loadIntoChunk(start types.FilePosition, size types.ChunkSize, id types.ChunkID, ch *Chunk, eofRetry bool) error {
	offset := c.start + start
	if offset > math.MaxInt64 {
		delete(c.chunks, id)
		return fmt.Errorf("%w: position %d out of range", ErrSeek, offset)
	}

	buf := make(types.Buffer, size)
	n, err := c.file.ReadAt(buf, int64(offset))
	switch {
	case err == nil || (errors.Is(err, io.EOF) && uint64(n) == size):
		ch.Data = buf[:n]
		return nil
	case errors.Is(err, io.EOF):
		if eofRetry {
			delete(c.chunks, id)
			return fmt.Errorf("%w: wanted %d bytes at %d, got %d", ErrEOFRetry, size, offset, n)
		}
		return c.loadIntoChunk(start, uint64(n), id, ch, true)
	default:
		// Drop the half-formed chunk so the cache stays consistent and
		// the caller may retry.
		delete(c.chunks, id)
		return fmt.Errorf("%w: %d bytes at %d: %v", ErrRead, size, offset, err)
	}
}

// ReadRaw returns the file's byte at pos as stored on disk, loading and
// possibly evicting chunks. Absence means pos is past EOF or outside
// the session window.
func (c *Cache) ReadRaw(pos types.FilePosition) (types.Byte, bool, error) {
	if c.end != nil && c.start+pos >= *c.end {
		return 0, false, nil
	}

	id, ok := c.FindChunk(pos)
	if !ok {
		var err error
		if id, err = c.loadChunk(c.AlignedStart(pos), c.chunkSize); err != nil {
			return 0, false, err
		}
		if !c.chunks[id].Covers(pos) {
			panic(fmt.Sprintf("chunk: loaded chunk %d does not cover position %d", id, pos))
		}
		// The just-loaded chunk caused the over-budget condition;
		// evicting it straight away would thrash.
		c.Cleanup(id)
	}

	ch := c.chunks[id]
	ch.Touch(c.nowMillis(), 1)

	// Positions inside the declared range but past the data length are
	// past EOF.
	if pos-ch.Start >= uint64(len(ch.Data)) {
		return 0, false, nil
	}
	return ch.Data[pos-ch.Start], true, nil
}

// ReadMultipleRaw performs size independent raw reads starting at pos.
func (c *Cache) ReadMultipleRaw(pos types.FilePosition, size int) ([]types.NullByte, error) {
	out := make([]types.NullByte, 0, size)
	for i := 0; i < size; i++ {
		b, ok, err := c.ReadRaw(pos + uint64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, types.NullByte{Byte: b, Valid: ok})
	}
	return out, nil
}

// Cleanup evicts chunks until the memory budget holds, sparing the ids
// in ignore. Eviction order is ascending eviction key, never-touched
// chunks first, ties broken by id. The sweep stops early when only
// pinned chunks remain.
func (c *Cache) Cleanup(ignore ...types.ChunkID) {
	if uint64(len(c.chunks))*c.chunkSize <= c.maxMemory {
		return
	}

	pinned := make(map[types.ChunkID]struct{}, len(ignore))
	for _, id := range ignore {
		pinned[id] = struct{}{}
	}

	candidates := make([]types.ChunkID, 0, len(c.chunks))
	for id := range c.chunks {
		if _, ok := pinned[id]; !ok {
			candidates = append(candidates, id)
		}
	}
	slices.SortFunc(candidates, func(a, b types.ChunkID) int {
		ac, bc := c.chunks[a], c.chunks[b]
		if never, bnever := ac.LastTouchedMS == 0, bc.LastTouchedMS == 0; never != bnever {
			if never {
				return -1
			}
			return 1
		}
		if ak, bk := ac.evictionKey(), bc.evictionKey(); ak != bk {
			if ak < bk {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		return 1
	})

	evicted := 0
	for uint64(len(c.chunks))*c.chunkSize > c.maxMemory && len(candidates) > 0 {
		delete(c.chunks, candidates[0])
		candidates = candidates[1:]
		evicted++
	}
	if evicted > 0 {
		c.logger.Debug("evicted chunks", "count", evicted, "resident", len(c.chunks))
	}
}

// InvalidateChunks drops every resident chunk, e.g. after a destructive
// save rewrites the underlying bytes.
func (c *Cache) InvalidateChunks() {
	c.chunks = make(map[types.ChunkID]*Chunk)
}

// DestroyChunk evicts the chunk named by id.
func (c *Cache) DestroyChunk(id types.ChunkID) error {
	if _, ok := c.chunks[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChunk, id)
	}
	delete(c.chunks, id)
	return nil
}

// chunkByID is a test hook returning the resident chunk for id.
func (c *Cache) chunkByID(id types.ChunkID) *Chunk {
	return c.chunks[id]
}
