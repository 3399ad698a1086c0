package ardfs

import (
	"fmt"
	"io"
)

// CompressionStrategy selects how DataCodec.WriteNew and DataCodec.Replace encode a
// new payload.
type CompressionStrategy int

const (
	// CompressionNone stores the payload uncompressed. It adds no container header,
	// except when Replace re-encodes an entry that already had one: the payload is then
	// stored inside a CompNone container.
	CompressionNone CompressionStrategy = iota
	// CompressionStandard wraps the payload in a container using the codec named by
	// the DataCodec's configured default type.
	CompressionStandard
	// CompressionBest tries every registered codec and keeps the smallest container.
	CompressionBest
)

// DataCodec reads and writes DATA entries against a random-access byte stream,
// transparently handling the compression container. r and w are
// independent capability sets per the "Polymorphic streams" design note so a
// read-only DataCodec can be built over a stream with no write support.
type DataCodec struct {
	r           io.ReaderAt
	w           io.WriterAt
	defaultComp CompType
}

// NewDataCodec returns a codec for reading entries from r. w may be nil for a
// read-only codec.
func NewDataCodec(r io.ReaderAt, w io.WriterAt) *DataCodec {
	return &DataCodec{r: r, w: w, defaultComp: CompXZ}
}

// SetDefaultCompression overrides the codec used by CompressionStandard.
func (c *DataCodec) SetDefaultCompression(t CompType) {
	c.defaultComp = t
}

type sectionReader struct {
	r   io.ReaderAt
	off int64
}

func (s *sectionReader) Read(p []byte) (int, error) {
	n, err := s.r.ReadAt(p, s.off)
	s.off += int64(n)
	return n, err
}

// ReadEntry reads and, if necessary, decompresses meta's full payload.
func (c *DataCodec) ReadEntry(meta *FileMeta) ([]byte, error) {
	sr := &sectionReader{r: c.r, off: int64(meta.Offset)}
	if !meta.IsCompressed() {
		buf := make([]byte, meta.CompressedSize)
		if _, err := io.ReadFull(sr, buf); err != nil {
			return nil, fmt.Errorf("ardfs: reading raw entry: %w", err)
		}
		return buf, nil
	}
	return decompressContainer(sr)
}

// ReadEntrySlice reads take bytes of meta's decompressed payload starting at skip,
// clamped to the entry's actual (post-decompress) size, for FUSE ranged reads.
func (c *DataCodec) ReadEntrySlice(meta *FileMeta, skip, take uint64) ([]byte, error) {
	full, err := c.ReadEntry(meta)
	if err != nil {
		return nil, err
	}
	if skip >= uint64(len(full)) {
		return nil, nil
	}
	end := skip + take
	if end > uint64(len(full)) {
		end = uint64(len(full))
	}
	return full[skip:end], nil
}

// WriteEntry writes payload verbatim at offset.
func (c *DataCodec) WriteEntry(offset uint64, payload []byte) error {
	if c.w == nil {
		return fmt.Errorf("ardfs: data codec opened read-only")
	}
	_, err := c.w.WriteAt(payload, int64(offset))
	return err
}

// encode applies strategy to payload and returns the bytes to write to DATA plus the
// FileMeta fields they imply. wasWrapped carries the entry's prior
// HasCompressionHeader state so CompressionNone can keep container framing stable
// across a replace instead of silently dropping it.
func (c *DataCodec) encode(payload []byte, strategy CompressionStrategy, wasWrapped bool) (out []byte, compressedSize, uncompressedSize uint32, flags FileFlag, err error) {
	switch strategy {
	case CompressionNone:
		if !wasWrapped {
			return payload, uint32(len(payload)), 0, 0, nil
		}
		out, err = compressContainer(CompNone, payload)
		if err != nil {
			return nil, 0, 0, 0, err
		}
		return out, uint32(len(out)), uint32(len(payload)), HasCompressionHeader, nil
	case CompressionStandard:
		out, err = compressContainer(c.defaultComp, payload)
	case CompressionBest:
		out, err = bestCompress(payload)
	default:
		return nil, 0, 0, 0, fmt.Errorf("ardfs: unknown compression strategy %d", strategy)
	}
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return out, uint32(len(out)), uint32(len(payload)), HasCompressionHeader, nil
}

// WriteNew allocates fresh DATA space for meta's payload, writes it, updates meta in
// place, and marks the allocator.
func (c *DataCodec) WriteNew(alloc *BlockAllocator, meta *FileMeta, payload []byte, strategy CompressionStrategy) error {
	out, compSize, uncompSize, flags, err := c.encode(payload, strategy, false)
	if err != nil {
		return err
	}

	offset := alloc.FindFree(uint64(len(out)))
	if err := c.WriteEntry(offset, out); err != nil {
		return err
	}

	meta.Offset = offset
	meta.CompressedSize = compSize
	meta.UncompressedSize = uncompSize
	meta.Flags = (meta.Flags &^ HasCompressionHeader) | flags
	alloc.Mark(meta, true)
	return nil
}

// Replace re-encodes meta's payload, reusing meta's existing allocation when the new
// encoding fits, otherwise allocating a fresh range and freeing the old one.
func (c *DataCodec) Replace(alloc *BlockAllocator, meta *FileMeta, payload []byte, strategy CompressionStrategy) error {
	out, compSize, uncompSize, flags, err := c.encode(payload, strategy, meta.Flags.Has(HasCompressionHeader))
	if err != nil {
		return err
	}

	old := *meta
	offset := alloc.FindReplace(&old, uint64(len(out)))
	if err := c.WriteEntry(offset, out); err != nil {
		return err
	}

	if offset != old.Offset {
		alloc.Mark(&old, false)
	}

	meta.Offset = offset
	meta.CompressedSize = compSize
	meta.UncompressedSize = uncompSize
	meta.Flags = (meta.Flags &^ HasCompressionHeader) | flags
	alloc.Mark(meta, true)
	return nil
}
