package ardfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// StringTable is an append-only byte buffer of records, each a NUL-terminated tail
// followed by a little-endian u32 file_id. A u32 offset selects a record.
//
// Records of deleted files are never reclaimed; they become dead but harmless bytes.
type StringTable struct {
	buf []byte
}

// NewStringTable wraps raw (already de-obfuscated) string-table bytes.
func NewStringTable(raw []byte) *StringTable {
	return &StringTable{buf: append([]byte(nil), raw...)}
}

// Bytes returns the table's raw on-disk representation.
func (st *StringTable) Bytes() []byte {
	return st.buf
}

// Len returns the current byte length of the table.
func (st *StringTable) Len() int {
	return len(st.buf)
}

// Get returns the tail string and file_id stored at offset.
func (st *StringTable) Get(offset uint32) (tail string, fileID uint32, err error) {
	if int(offset) >= len(st.buf) {
		return "", 0, fmt.Errorf("ardfs: string table offset %d out of range: %w", offset, ErrParse)
	}
	rest := st.buf[offset:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return "", 0, fmt.Errorf("ardfs: unterminated string table record at %d: %w", offset, ErrParse)
	}
	tail = string(rest[:nul])
	idOff := nul + 1
	if idOff+4 > len(rest) {
		return "", 0, fmt.Errorf("ardfs: truncated string table record at %d: %w", offset, ErrParse)
	}
	fileID = binary.LittleEndian.Uint32(rest[idOff : idOff+4])
	return tail, fileID, nil
}

// Push appends a new record and returns the starting offset of the new record.
func (st *StringTable) Push(tail string, fileID uint32) (uint32, error) {
	offset := len(st.buf)
	if offset == 0 {
		// A Leaf stores its string offset negated in the raw node's next field, so a
		// record at offset 0 would encode as next == 0 and decode as Occupied. Byte 0
		// of an empty table is reserved as padding so no record starts there.
		st.buf = append(st.buf, 0)
		offset = 1
	}
	if offset > 0xFFFFFFFF-len(tail)-5 {
		return 0, ErrSizeOverflow
	}
	st.buf = append(st.buf, []byte(tail)...)
	st.buf = append(st.buf, 0)
	var idBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], fileID)
	st.buf = append(st.buf, idBuf[:]...)
	return uint32(offset), nil
}

// Clone returns an independent deep copy of st. PathTrie.Insert does not use it; it
// appends to the table it is given directly.
func (st *StringTable) Clone() *StringTable {
	return &StringTable{buf: append([]byte(nil), st.buf...)}
}
