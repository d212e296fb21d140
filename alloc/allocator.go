// Package alloc implements the cached block allocator: it packs
// variable-length byte records into fixed-size numbered blocks on disk
// under a cache directory, the way a paragraph text model persists itself
// between reads.
package alloc

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// BlockSize is the target size of a single cache block in bytes.
const BlockSize = 131072

// Address identifies a record's position in the allocator's block stream:
// the block it starts in and the byte offset within that block.
type Address struct {
	BlockIndex int
	Offset     int
}

// Allocator packs append-only records into fixed-size blocks named
// "<dir>/<name><suffix>.<ext>.<index>". Once flush succeeds, the blocks on
// disk are the complete, ordered record stream; reading back a record only
// needs its Address.
type Allocator struct {
	log *zap.Logger

	dir    string
	name   string
	suffix string
	ext    string

	block       []byte
	blockUsed   int
	blocksCount int

	failed bool
}

// New creates an allocator writing under dir, using the naming scheme
// "<name><suffix>.<ext>.<index>" for each flushed block.
func New(dir, name, suffix, ext string, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{
		log:    log.Named("alloc"),
		dir:    dir,
		name:   name,
		suffix: suffix,
		ext:    ext,
		block:  make([]byte, 0, BlockSize),
	}
}

// DirectoryName returns the cache directory this allocator writes into.
func (a *Allocator) DirectoryName() string { return a.dir }

// FileName returns the base file name (without block index suffix).
func (a *Allocator) FileName() string { return a.name + a.suffix }

// FileExtension returns the block file extension.
func (a *Allocator) FileExtension() string { return a.ext }

// BlocksNumber returns the number of blocks flushed so far, not counting the
// block currently being filled.
func (a *Allocator) BlocksNumber() int { return a.blocksCount }

// Failed reports whether a write to disk has ever failed. It is sticky:
// once true, Allocate becomes a no-op that keeps returning a scratch buffer,
// since reading best-effort means we keep going rather than aborting here.
func (a *Allocator) Failed() bool { return a.failed }

// Allocate returns a writable region of length n and the address where it
// begins. If the current block does not have n bytes free, the block is
// flushed to disk first. A record whose size exceeds BlockSize gets a block
// entirely to itself.
func (a *Allocator) Allocate(n int) (Address, []byte) {
	if a.failed {
		return Address{}, make([]byte, n)
	}
	if a.blockUsed > 0 && a.blockUsed+n > BlockSize {
		if err := a.flushBlock(); err != nil {
			a.markFailed(err)
			return Address{}, make([]byte, n)
		}
	}
	addr := Address{BlockIndex: a.blocksCount, Offset: a.blockUsed}
	a.block = append(a.block, make([]byte, n)...)
	region := a.block[a.blockUsed : a.blockUsed+n]
	a.blockUsed += n
	return addr, region
}

// WriteUInt16 writes v little-endian at region[0:2].
func WriteUInt16(region []byte, v uint16) {
	binary.LittleEndian.PutUint16(region, v)
}

// WriteUInt32 writes v little-endian at region[0:4].
func WriteUInt32(region []byte, v uint32) {
	binary.LittleEndian.PutUint32(region, v)
}

// ReadUInt16 reads a little-endian uint16 from region[0:2].
func ReadUInt16(region []byte) uint16 { return binary.LittleEndian.Uint16(region) }

// ReadUInt32 reads a little-endian uint32 from region[0:4].
func ReadUInt32(region []byte) uint32 { return binary.LittleEndian.Uint32(region) }

// Flush writes any unwritten block to disk. It is idempotent: calling it
// twice in a row performs no additional I/O the second time.
func (a *Allocator) Flush() error {
	if a.failed {
		return fmt.Errorf("allocator %s%s: already failed", a.name, a.suffix)
	}
	if a.blockUsed == 0 {
		return nil
	}
	if err := a.flushBlock(); err != nil {
		a.markFailed(err)
		return err
	}
	return nil
}

func (a *Allocator) flushBlock() error {
	path := a.blockPath(a.blocksCount)
	if err := os.WriteFile(path, a.block, 0o644); err != nil {
		return fmt.Errorf("unable to write cache block %s: %w", path, err)
	}
	a.log.Debug("flushed cache block", zap.String("path", path), zap.Int("bytes", len(a.block)))
	a.blocksCount++
	a.block = a.block[:0]
	a.blockUsed = 0
	return nil
}

func (a *Allocator) markFailed(err error) {
	a.failed = true
	a.log.Error("cache write failed, allocator is now sticky-failed", zap.Error(err))
}

func (a *Allocator) blockPath(index int) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s%s.%s.%d", a.name, a.suffix, a.ext, index))
}

// Position returns the address the next Allocate call would begin writing
// at, without reserving any bytes. A paragraph's start address is captured
// this way even when the paragraph turns out to hold zero entries.
func (a *Allocator) Position() Address {
	return Address{BlockIndex: a.blocksCount, Offset: a.blockUsed}
}

// ReadBlock reads back a previously flushed block by index, for use by a
// reader reconstructing records from an Address.
func (a *Allocator) ReadBlock(index int) ([]byte, error) {
	data, err := os.ReadFile(a.blockPath(index))
	if err != nil {
		return nil, fmt.Errorf("unable to read cache block %s.%s.%d: %w", a.name, a.suffix, index, err)
	}
	return data, nil
}
