package ardfs

import "io"

// FileSystem composes MetaCodec, DataCodec, and DirTree into the read/write query and
// mutation surface over an archive. A loaded value is freely shareable for
// concurrent immutable queries; mutating methods require exclusive access, matching a
// single-threaded-mutation / multi-threaded-read model — FileSystem itself does no
// locking, leaving serialization to the host (e.g. the FUSE adapter).
type FileSystem struct {
	meta *Meta
	dir  *DirTree
	data *DataCodec
	opts Options
}

// Load reads a META stream and wraps metaR/dataR/dataW into a queryable, mutable
// FileSystem. dataW may be nil to open a read-only view.
func Load(metaR io.ReaderAt, dataR io.ReaderAt, dataW io.WriterAt, opts ...Option) (*FileSystem, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	m, err := ReadMeta(metaR, o)
	if err != nil {
		return nil, err
	}
	dt, err := buildDirTree(m.Trie, m.Strings)
	if err != nil {
		return nil, err
	}

	data := NewDataCodec(dataR, dataW)
	data.SetDefaultCompression(o.defaultComp)

	return &FileSystem{meta: m, dir: dt, data: data, opts: o}, nil
}

func (fs *FileSystem) normalize(p string) ([]byte, error) {
	np, err := Normalize(p)
	if err != nil {
		return nil, err
	}
	return np.Bytes()[1:], nil // trie paths never include the leading '/'
}

// IsFile reports whether p resolves to a file entry.
func (fs *FileSystem) IsFile(p string) bool {
	_, _, ok := fs.lookup(p)
	return ok
}

// IsDir reports whether p names a directory in the synthesized DirTree.
func (fs *FileSystem) IsDir(p string) bool {
	np, err := Normalize(p)
	if err != nil {
		return false
	}
	return fs.dir.IsDir(string(np))
}

// Exists reports whether p names either a file or a directory.
func (fs *FileSystem) Exists(p string) bool {
	return fs.IsFile(p) || fs.IsDir(p)
}

func (fs *FileSystem) lookup(p string) (fileID uint32, leafIdx int32, ok bool) {
	rest, err := fs.normalize(p)
	if err != nil {
		return 0, 0, false
	}
	return fs.meta.Trie.Lookup(rest, fs.meta.Strings)
}

// GetFileInfo returns the FileMeta for p, or false if p is not a file.
func (fs *FileSystem) GetFileInfo(p string) (*FileMeta, bool) {
	id, _, ok := fs.lookup(p)
	if !ok {
		return nil, false
	}
	return fs.meta.Files.Get(id)
}

// GetDir returns the DirTree node rooted at p.
func (fs *FileSystem) GetDir(p string) (*DirTree, bool) {
	np, err := Normalize(p)
	if err != nil {
		return nil, false
	}
	return fs.dir.GetDir(string(np))
}

// CreateFile inserts a new, empty (zero DATA bytes) entry at p.
func (fs *FileSystem) CreateFile(p string) (*FileMeta, error) {
	np, err := Normalize(p)
	if err != nil {
		return nil, err
	}
	if fs.Exists(string(np)) {
		return nil, ErrAlreadyExists
	}

	rest := np.Bytes()[1:]
	id := fs.meta.Files.Push()

	newTrie, err := fs.meta.Trie.Insert(rest, id, fs.meta.Strings)
	if err != nil {
		fs.meta.Files.Delete(id)
		return nil, err
	}
	fs.meta.Trie = newTrie

	fs.dir.insertFile(string(np))

	meta, _ := fs.meta.Files.Get(id)
	return meta, nil
}

// DeleteFile removes the file at p, freeing its DATA allocation and recycling its
// file_id.
func (fs *FileSystem) DeleteFile(p string) error {
	np, err := Normalize(p)
	if err != nil {
		return err
	}
	id, leafIdx, ok := fs.lookup(string(np))
	if !ok {
		return ErrNoEntry
	}

	old, _ := fs.meta.Files.Delete(id)
	fs.meta.Trie.Remove(leafIdx)
	fs.meta.Alloc.Mark(&old, false)
	fs.dir.removeFile(string(np))
	return nil
}

// SetHidden toggles the Hidden flag bit on p's FileMeta in place, leaving the trie and
// DirTree untouched, backing the CLI's --soft/--restore removal flags.
func (fs *FileSystem) SetHidden(p string, hidden bool) error {
	meta, ok := fs.GetFileInfo(p)
	if !ok {
		return ErrNoEntry
	}
	if hidden {
		meta.Flags |= Hidden
	} else {
		meta.Flags &^= Hidden
	}
	return nil
}

// DeleteEmptyDir removes a leaf directory node from the in-memory DirTree only; the
// on-disk format has no concept of directories, so this never touches the trie.
func (fs *FileSystem) DeleteEmptyDir(p string) error {
	np, err := Normalize(p)
	if err != nil {
		return err
	}
	fs.dir.removeEmptyDir(string(np))
	return nil
}

// RenameFile moves the file at p to q, preserving its FileMeta. If creation at q
// fails, p is recreated with its original meta so the filesystem is left unchanged.
func (fs *FileSystem) RenameFile(p, q string) error {
	meta, ok := fs.GetFileInfo(p)
	if !ok {
		return ErrNoEntry
	}
	saved := *meta

	if err := fs.DeleteFile(p); err != nil {
		return err
	}

	created, err := fs.CreateFile(q)
	if err != nil {
		// This nested recreate must succeed by construction: p's slot was just freed.
		if _, rerr := fs.CreateFile(p); rerr == nil {
			if m, ok := fs.GetFileInfo(p); ok {
				fs.restoreMeta(m, saved)
			}
		}
		return err
	}

	fs.restoreMeta(created, saved)
	return nil
}

// restoreMeta copies saved's payload-describing fields into m, keeping m's own id, and
// re-marks the allocator occupied over saved's DATA range (DeleteFile already freed
// it, so rename does not change where the payload physically lives).
func (fs *FileSystem) restoreMeta(m *FileMeta, saved FileMeta) {
	id := m.ID
	*m = saved
	m.ID = id
	if m.CompressedSize > 0 {
		fs.meta.Alloc.Mark(m, true)
	}
}

// RenameDir moves every file under directory p to the corresponding path under q,
// rolling back already-moved files on any failure.
func (fs *FileSystem) RenameDir(p, q string) error {
	dir, ok := fs.GetDir(p)
	if !ok {
		return ErrNoEntry
	}
	children := dir.ChildrenPaths()

	moved := make([]string, 0, len(children))
	for _, child := range children {
		oldPath := p + child
		newPath := q + child
		if err := fs.RenameFile(oldPath, newPath); err != nil {
			for _, m := range moved {
				fs.RenameFile(q+m, p+m)
			}
			return err
		}
		moved = append(moved, child)
	}

	fs.dir.removeEmptyDir(p)
	return nil
}

// ReadFile reads the complete, decompressed payload of p.
func (fs *FileSystem) ReadFile(p string) ([]byte, error) {
	meta, ok := fs.GetFileInfo(p)
	if !ok {
		return nil, ErrNoEntry
	}
	return fs.data.ReadEntry(meta)
}

// ReadFileRange reads take bytes starting at skip of p's decompressed payload, for
// FUSE ranged reads.
func (fs *FileSystem) ReadFileRange(p string, skip, take uint64) ([]byte, error) {
	meta, ok := fs.GetFileInfo(p)
	if !ok {
		return nil, ErrNoEntry
	}
	return fs.data.ReadEntrySlice(meta, skip, take)
}

// WriteFile writes payload as p's complete new content, allocating fresh space if p
// was empty or reusing/replacing its existing allocation otherwise.
func (fs *FileSystem) WriteFile(p string, payload []byte, strategy CompressionStrategy) error {
	meta, ok := fs.GetFileInfo(p)
	if !ok {
		return ErrNoEntry
	}
	if meta.CompressedSize == 0 {
		return fs.data.WriteNew(fs.meta.Alloc, meta, payload, strategy)
	}
	return fs.data.Replace(fs.meta.Alloc, meta, payload, strategy)
}

// Sync recomputes the META layout and writes it to w.
func (fs *FileSystem) Sync(w io.WriterAt) error {
	return WriteMeta(w, fs.meta)
}
