package ardfs

import "sort"

// FileMeta is one entry of the FileTable, in on-disk field order: id always
// equals the entry's index in the table; a free (deleted, not yet recycled) slot is
// all-zeros.
type FileMeta struct {
	Offset           uint64
	CompressedSize   uint32
	UncompressedSize uint32
	Flags            FileFlag
	ID               uint32
}

// IsCompressed reports whether the entry's payload is preceded by a compression
// container header (UncompressedSize != 0 means a container is present).
func (m *FileMeta) IsCompressed() bool {
	return m.UncompressedSize != 0
}

// ActualSize returns the entry's logical (post-decompress) byte size, for display in
// CLI listings.
func (m *FileMeta) ActualSize() uint64 {
	if m.IsCompressed() {
		return uint64(m.UncompressedSize)
	}
	return uint64(m.CompressedSize)
}

// isZero reports whether m is an all-zeros free slot.
func (m *FileMeta) isZero() bool {
	return *m == FileMeta{}
}

// FileTable is the dense, file_id-indexed array of entries plus its recycle bin of
// freed IDs.
type FileTable struct {
	entries []FileMeta
	bin     RecycleBin
}

// NewFileTable returns an empty table.
func NewFileTable() *FileTable {
	return &FileTable{}
}

// fileTableFromRaw wraps a freshly decoded entry slice and recycle bin; ID invariants
// are assumed already satisfied by the on-disk data (entry.ID == index).
func fileTableFromRaw(entries []FileMeta, bin RecycleBin) *FileTable {
	return &FileTable{entries: entries, bin: bin}
}

// RecycleBin returns the table's pool of reusable file IDs, for MetaCodec serialization.
func (ft *FileTable) RecycleBin() *RecycleBin {
	return &ft.bin
}

// Entries returns the live table in index order, for allocator rebuilding and sync.
func (ft *FileTable) Entries() []FileMeta {
	return ft.entries
}

// Len returns the number of rows, including recycled/free ones.
func (ft *FileTable) Len() int {
	return len(ft.entries)
}

// Get returns the entry for id, or false if id is out of range.
func (ft *FileTable) Get(id uint32) (*FileMeta, bool) {
	if int(id) >= len(ft.entries) {
		return nil, false
	}
	return &ft.entries[id], true
}

// Push appends or recycles a slot for a brand-new file, returning its id. If the
// recycle bin is non-empty, the largest recycled id is reused.
func (ft *FileTable) Push() uint32 {
	if id, ok := ft.bin.Pop(); ok {
		ft.entries[id] = FileMeta{ID: id}
		return id
	}
	id := uint32(len(ft.entries))
	ft.entries = append(ft.entries, FileMeta{ID: id})
	return id
}

// Delete zeroes the slot for id and pushes it to the recycle bin, returning the meta
// the slot held just before deletion.
func (ft *FileTable) Delete(id uint32) (FileMeta, bool) {
	meta, ok := ft.Get(id)
	if !ok {
		return FileMeta{}, false
	}
	old := *meta
	*meta = FileMeta{}
	ft.bin.Push(id)
	return old, true
}

// RecycleBin is a sorted, deduplicated pool of reusable file IDs.
type RecycleBin struct {
	ids []uint32
}

// Push inserts id in sorted order if not already present.
func (b *RecycleBin) Push(id uint32) {
	i := sort.Search(len(b.ids), func(i int) bool { return b.ids[i] >= id })
	if i < len(b.ids) && b.ids[i] == id {
		return
	}
	b.ids = append(b.ids, 0)
	copy(b.ids[i+1:], b.ids[i:])
	b.ids[i] = id
}

// Pop returns and removes the largest recycled id (LIFO over the sorted slice).
func (b *RecycleBin) Pop() (uint32, bool) {
	if len(b.ids) == 0 {
		return 0, false
	}
	id := b.ids[len(b.ids)-1]
	b.ids = b.ids[:len(b.ids)-1]
	return id, true
}

// IDs returns the recycle bin's contents in ascending order.
func (b *RecycleBin) IDs() []uint32 {
	return b.ids
}

// recycleBinFromIDs builds a bin from an already-sorted, deduplicated on-disk array.
func recycleBinFromIDs(ids []uint32) RecycleBin {
	return RecycleBin{ids: ids}
}
