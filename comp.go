package ardfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// containerMagic is the 4-byte tag at the start of every compression container.
var containerMagic = [4]byte{'a', 'r', 'c', '1'}

// containerHeaderSize is the fixed size of the compression container header.
const containerHeaderSize = 0x30

const containerNameSize = containerHeaderSize - 4 - 4 - 4 - 4 - 4 // magic+ctype+dsize+csize+hash

// CompType identifies a compression container's payload codec. The type codes are an
// implementation choice (not observed in the retrieval pack, see DESIGN.md); 0 is
// reserved to mean "container present but stream uncompressed".
type CompType uint32

const (
	CompNone CompType = 0
	CompXZ   CompType = 1
	CompZstd CompType = 2
)

func (c CompType) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompXZ:
		return "xz"
	case CompZstd:
		return "zstd"
	default:
		return fmt.Sprintf("CompType(%d)", uint32(c))
	}
}

// CompHandler implements one registered CompType, covering both directions since
// entries here are written as well as read.
type CompHandler struct {
	Decompress func(r io.Reader, decompressedSize uint32) ([]byte, error)
	Compress   func(buf []byte) ([]byte, error)
}

var compHandlers = map[CompType]*CompHandler{}

// RegisterCompHandler installs the codec for t. Real codecs self-register via init()
// from their own build-tag-gated files (comp_xz.go, comp_zstd.go).
func RegisterCompHandler(t CompType, h *CompHandler) {
	compHandlers[t] = h
}

// containerHeader is the fixed 0x30-byte prefix of a compressed DATA entry.
type containerHeader struct {
	Type             CompType
	DecompressedSize uint32
	CompressedSize   uint32
	Hash             uint32
	Name             [containerNameSize]byte
}

func readContainerHeader(r io.Reader) (containerHeader, error) {
	var buf [containerHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return containerHeader{}, fmt.Errorf("ardfs: reading compression container header: %w", err)
	}
	if buf[0] != containerMagic[0] || buf[1] != containerMagic[1] || buf[2] != containerMagic[2] || buf[3] != containerMagic[3] {
		return containerHeader{}, fmt.Errorf("ardfs: bad compression container magic: %w", ErrParse)
	}
	var h containerHeader
	h.Type = CompType(binary.LittleEndian.Uint32(buf[4:8]))
	h.DecompressedSize = binary.LittleEndian.Uint32(buf[8:12])
	h.CompressedSize = binary.LittleEndian.Uint32(buf[12:16])
	h.Hash = binary.LittleEndian.Uint32(buf[16:20])
	copy(h.Name[:], buf[20:containerHeaderSize])
	return h, nil
}

func (h containerHeader) marshal() []byte {
	buf := make([]byte, containerHeaderSize)
	copy(buf[0:4], containerMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Type))
	binary.LittleEndian.PutUint32(buf[8:12], h.DecompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[16:20], h.Hash)
	copy(buf[20:containerHeaderSize], h.Name[:])
	return buf
}

// decompressContainer parses a 0x30-byte container at the front of r and returns the
// fully decompressed payload.
func decompressContainer(r io.Reader) ([]byte, error) {
	h, err := readContainerHeader(r)
	if err != nil {
		return nil, err
	}
	if h.Type == CompNone {
		buf := make([]byte, h.DecompressedSize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}
		return buf, nil
	}
	handler, ok := compHandlers[h.Type]
	if !ok || handler.Decompress == nil {
		return nil, fmt.Errorf("ardfs: compression type %s: %w", h.Type, ErrUnknownCompression)
	}
	lr := io.LimitReader(r, int64(h.CompressedSize))
	buf, err := handler.Decompress(lr, h.DecompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return buf, nil
}

// compressContainer compresses payload with t (CompNone stores it verbatim inside the
// container) and returns the full container bytes, ready to be appended to a DATA
// write.
func compressContainer(t CompType, payload []byte) ([]byte, error) {
	var body []byte
	if t == CompNone {
		body = payload
	} else {
		handler, ok := compHandlers[t]
		if !ok || handler.Compress == nil {
			return nil, fmt.Errorf("ardfs: compression type %s: %w", t, ErrUnknownCompression)
		}
		out, err := handler.Compress(payload)
		if err != nil {
			return nil, err
		}
		body = out
	}

	h := containerHeader{
		Type:             t,
		DecompressedSize: uint32(len(payload)),
		CompressedSize:   uint32(len(body)),
		Hash:             crc32.ChecksumIEEE(payload),
	}
	var out bytes.Buffer
	out.Write(h.marshal())
	out.Write(body)
	return out.Bytes(), nil
}

// bestCompress tries every registered codec plus the uncompressed form and returns the
// smallest encoded container, implementing CompressionStrategy Best.
func bestCompress(payload []byte) ([]byte, error) {
	best, err := compressContainer(CompNone, payload)
	if err != nil {
		return nil, err
	}
	for t, h := range compHandlers {
		if h.Compress == nil {
			continue
		}
		candidate, err := compressContainer(t, payload)
		if err != nil {
			continue
		}
		if len(candidate) < len(best) {
			best = candidate
		}
	}
	return best, nil
}
