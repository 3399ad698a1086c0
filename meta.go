package ardfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// keyXor is the constant the stored obfuscation key is XORed with to get the
// effective key applied to the string table and path trie.
const keyXor = 0xF3F35353

const (
	metaHeaderSize   = 0x30
	extOffsetsSize   = 8 // "arhx" + u32 section_offset
	fileMetaWireSize = 24
	pathNodeWireSize = 8
)

var metaMagic = [4]byte{'a', 'r', 'h', '1'}
var extMagic = [4]byte{'a', 'r', 'h', 'x'}

// metaOffsets is the header's offsets record.
type metaOffsets struct {
	PathDictNodeCount uint32
	StrTableOffset    uint32
	StrTableLen       uint32
	PathDictOffset    uint32
	PathDictLen       uint32
	FileTableOffset   uint32
	FileTableLen      uint32
}

// Meta is the fully decoded contents of a META (.arh) file: the string table, path
// trie, and file table every FileSystem operation walks, plus the extension state
// (allocator bitmap and recycle bin) kept alongside the file table for write support.
type Meta struct {
	Strings *StringTable
	Trie    *PathTrie
	Files   *FileTable
	Alloc   *BlockAllocator
}

func xorBuf(buf []byte, key uint32) {
	if key == 0 {
		return
	}
	var kb [4]byte
	binary.LittleEndian.PutUint32(kb[:], key)
	for i := range buf {
		buf[i] ^= kb[i%4]
	}
}

func readAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadMeta decodes a complete META file container from r.
func ReadMeta(r io.ReaderAt, opts Options) (*Meta, error) {
	header, err := readAt(r, 0, metaHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("ardfs: reading META header: %w", err)
	}
	if header[0] != metaMagic[0] || header[1] != metaMagic[1] || header[2] != metaMagic[2] || header[3] != metaMagic[3] {
		return nil, fmt.Errorf("ardfs: bad META magic: %w", ErrParse)
	}

	// header[4:8] is the duplicated string-table length; the authoritative value lives
	// in the offsets record and is used below.
	off := metaOffsets{
		PathDictNodeCount: binary.LittleEndian.Uint32(header[0x08:0x0C]),
		StrTableOffset:    binary.LittleEndian.Uint32(header[0x0C:0x10]),
		StrTableLen:       binary.LittleEndian.Uint32(header[0x10:0x14]),
		PathDictOffset:    binary.LittleEndian.Uint32(header[0x14:0x18]),
		PathDictLen:       binary.LittleEndian.Uint32(header[0x18:0x1C]),
		FileTableOffset:   binary.LittleEndian.Uint32(header[0x1C:0x20]),
		FileTableLen:      binary.LittleEndian.Uint32(header[0x20:0x24]),
	}
	storedKey := binary.LittleEndian.Uint32(header[0x24:0x28])
	effectiveKey := storedKey ^ keyXor

	var extSectionOffset uint32
	hasExt := header[0x28] == extMagic[0] && header[0x29] == extMagic[1] && header[0x2A] == extMagic[2] && header[0x2B] == extMagic[3]
	if hasExt {
		extSectionOffset = binary.LittleEndian.Uint32(header[0x2C:0x30])
	}

	strBuf, err := readAt(r, int64(off.StrTableOffset), int(off.StrTableLen))
	if err != nil {
		return nil, fmt.Errorf("ardfs: reading string table: %w", err)
	}
	xorBuf(strBuf, effectiveKey)
	strings := NewStringTable(strBuf)

	trieBuf, err := readAt(r, int64(off.PathDictOffset), int(off.PathDictLen))
	if err != nil {
		return nil, fmt.Errorf("ardfs: reading path trie: %w", err)
	}
	xorBuf(trieBuf, effectiveKey)
	rawNodes, err := decodeRawDictNodes(trieBuf)
	if err != nil {
		return nil, err
	}
	trie := pathTrieFromRaw(rawNodes)

	fileBuf, err := readAt(r, int64(off.FileTableOffset), int(off.FileTableLen))
	if err != nil {
		return nil, fmt.Errorf("ardfs: reading file table: %w", err)
	}
	entries, err := decodeFileMetas(fileBuf)
	if err != nil {
		return nil, err
	}

	var bin RecycleBin
	var alloc *BlockAllocator

	if hasExt {
		alloc, bin, err = readExtSection(r, int64(extSectionOffset))
		if err != nil {
			return nil, err
		}
		if opts.extForceBlockSize && alloc.P() != opts.extBlockSizePow {
			ft := fileTableFromRaw(entries, bin)
			alloc = blockAllocatorFromFileTable(opts.extBlockSizePow, ft)
		}
	} else {
		ft := fileTableFromRaw(entries, bin)
		alloc = blockAllocatorFromFileTable(opts.extBlockSizePow, ft)
	}

	files := fileTableFromRaw(entries, bin)

	return &Meta{Strings: strings, Trie: trie, Files: files, Alloc: alloc}, nil
}

func decodeRawDictNodes(buf []byte) ([]rawDictNode, error) {
	if len(buf)%pathNodeWireSize != 0 {
		return nil, fmt.Errorf("ardfs: path trie section size %d not a multiple of %d: %w", len(buf), pathNodeWireSize, ErrParse)
	}
	n := len(buf) / pathNodeWireSize
	out := make([]rawDictNode, n)
	for i := 0; i < n; i++ {
		b := buf[i*pathNodeWireSize:]
		out[i] = rawDictNode{
			Next: int32(binary.LittleEndian.Uint32(b[0:4])),
			Prev: int32(binary.LittleEndian.Uint32(b[4:8])),
		}
	}
	return out, nil
}

func encodeRawDictNodes(nodes []rawDictNode) []byte {
	buf := make([]byte, len(nodes)*pathNodeWireSize)
	for i, n := range nodes {
		b := buf[i*pathNodeWireSize:]
		binary.LittleEndian.PutUint32(b[0:4], uint32(n.Next))
		binary.LittleEndian.PutUint32(b[4:8], uint32(n.Prev))
	}
	return buf
}

func decodeFileMetas(buf []byte) ([]FileMeta, error) {
	if len(buf)%fileMetaWireSize != 0 {
		return nil, fmt.Errorf("ardfs: file table section size %d not a multiple of %d: %w", len(buf), fileMetaWireSize, ErrParse)
	}
	n := len(buf) / fileMetaWireSize
	out := make([]FileMeta, n)
	for i := 0; i < n; i++ {
		b := buf[i*fileMetaWireSize:]
		out[i] = FileMeta{
			Offset:           binary.LittleEndian.Uint64(b[0:8]),
			CompressedSize:   binary.LittleEndian.Uint32(b[8:12]),
			UncompressedSize: binary.LittleEndian.Uint32(b[12:16]),
			Flags:            FileFlag(binary.LittleEndian.Uint32(b[16:20])),
			ID:               binary.LittleEndian.Uint32(b[20:24]),
		}
	}
	return out, nil
}

func encodeFileMetas(entries []FileMeta) []byte {
	buf := make([]byte, len(entries)*fileMetaWireSize)
	for i, m := range entries {
		b := buf[i*fileMetaWireSize:]
		binary.LittleEndian.PutUint64(b[0:8], m.Offset)
		binary.LittleEndian.PutUint32(b[8:12], m.CompressedSize)
		binary.LittleEndian.PutUint32(b[12:16], m.UncompressedSize)
		binary.LittleEndian.PutUint32(b[16:20], uint32(m.Flags))
		binary.LittleEndian.PutUint32(b[20:24], m.ID)
	}
	return buf
}

func readExtSection(r io.ReaderAt, offset int64) (*BlockAllocator, RecycleBin, error) {
	prefix, err := readAt(r, offset, 8) // magic + section_size
	if err != nil {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: reading extension section: %w", err)
	}
	if prefix[0] != extMagic[0] || prefix[1] != extMagic[1] || prefix[2] != extMagic[2] || prefix[3] != extMagic[3] {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: bad extension section magic: %w", ErrParse)
	}
	sectionSize := binary.LittleEndian.Uint32(prefix[4:8])

	body, err := readAt(r, offset+8, int(sectionSize))
	if err != nil {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: reading extension section body: %w", err)
	}

	if len(body) < 10 {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: truncated block allocator header: %w", ErrParse)
	}
	p := binary.LittleEndian.Uint16(body[0:2])
	wordCount := binary.LittleEndian.Uint64(body[2:10])
	cursor := 10
	needed := cursor + int(wordCount)*8
	if len(body) < needed {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: truncated block allocator bitmap: %w", ErrParse)
	}
	words := make([]uint64, wordCount)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(body[cursor : cursor+8])
		cursor += 8
	}
	alloc := wordsFromRaw(p, words)

	if len(body) < cursor+4 {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: truncated recycle bin: %w", ErrParse)
	}
	binCount := binary.LittleEndian.Uint32(body[cursor : cursor+4])
	cursor += 4
	needed = cursor + int(binCount)*4
	if len(body) < needed {
		return nil, RecycleBin{}, fmt.Errorf("ardfs: truncated recycle bin ids: %w", ErrParse)
	}
	ids := make([]uint32, binCount)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(body[cursor : cursor+4])
		cursor += 4
	}

	return alloc, recycleBinFromIDs(ids), nil
}

func align(n, a int) int {
	if n%a == 0 {
		return n
	}
	return n + (a - n%a)
}

// encodeExtSection returns the "arhx"-prefixed extension section bytes:
// magic, section_size, the allocator bitmap, then the recycle bin.
func encodeExtSection(alloc *BlockAllocator, bin *RecycleBin) []byte {
	words := alloc.Words()
	ids := bin.IDs()

	bodySize := 2 + 8 + len(words)*8 + 4 + len(ids)*4
	out := make([]byte, 8+bodySize)
	copy(out[0:4], extMagic[:])
	binary.LittleEndian.PutUint32(out[4:8], uint32(bodySize))

	cursor := 8
	binary.LittleEndian.PutUint16(out[cursor:cursor+2], alloc.P())
	cursor += 2
	binary.LittleEndian.PutUint64(out[cursor:cursor+8], uint64(len(words)))
	cursor += 8
	for _, w := range words {
		binary.LittleEndian.PutUint64(out[cursor:cursor+8], w)
		cursor += 8
	}
	binary.LittleEndian.PutUint32(out[cursor:cursor+4], uint32(len(ids)))
	cursor += 4
	for _, id := range ids {
		binary.LittleEndian.PutUint32(out[cursor:cursor+4], id)
		cursor += 4
	}
	return out
}

// WriteMeta re-serializes meta to w, resetting the obfuscation key to keyXor so the
// string table and path trie are written in plaintext.
func WriteMeta(w io.WriterAt, meta *Meta) error {
	strBuf := meta.Strings.Bytes()
	trieBuf := encodeRawDictNodes(meta.Trie.toRaw())
	fileBuf := encodeFileMetas(meta.Files.Entries())
	extBuf := encodeExtSection(meta.Alloc, meta.Files.RecycleBin())

	extOffset := align(metaHeaderSize, 16)
	strOffset := align(extOffset+len(extBuf), 32)
	trieOffset := align(strOffset+len(strBuf), 32)
	fileOffset := trieOffset + len(trieBuf)

	total := fileOffset + len(fileBuf)
	buf := make([]byte, total)

	copy(buf[0:4], metaMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(strBuf)))
	binary.LittleEndian.PutUint32(buf[0x08:0x0C], uint32(meta.Trie.Len()))
	binary.LittleEndian.PutUint32(buf[0x0C:0x10], uint32(strOffset))
	binary.LittleEndian.PutUint32(buf[0x10:0x14], uint32(len(strBuf)))
	binary.LittleEndian.PutUint32(buf[0x14:0x18], uint32(trieOffset))
	binary.LittleEndian.PutUint32(buf[0x18:0x1C], uint32(len(trieBuf)))
	binary.LittleEndian.PutUint32(buf[0x1C:0x20], uint32(fileOffset))
	binary.LittleEndian.PutUint32(buf[0x20:0x24], uint32(len(fileBuf)))
	binary.LittleEndian.PutUint32(buf[0x24:0x28], uint32(keyXor))
	copy(buf[0x28:0x2C], extMagic[:])
	binary.LittleEndian.PutUint32(buf[0x2C:0x30], uint32(extOffset))

	copy(buf[extOffset:], extBuf)
	copy(buf[strOffset:], strBuf)
	copy(buf[trieOffset:], trieBuf)
	copy(buf[fileOffset:], fileBuf)

	if _, err := w.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("ardfs: writing META: %w", err)
	}
	return nil
}
