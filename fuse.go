//go:build fuse

package ardfs

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// placeholderName is synthesized inside any directory that would otherwise have no
// children, since some FUSE clients refuse to treat an empty directory listing as a
// real directory.
const placeholderName = ".fuse_ard_dir"

// Host adapts a FileSystem to the go-fuse v2 node API, using the higher-level
// fs.InodeEmbedder surface rather than the raw protocol since it needs to support
// create/delete/rename, not just reads.
type Host struct {
	fsys *FileSystem

	mu     sync.Mutex
	inoIdx map[uint64]string // inode number -> ardfs path, refcounted by inoRef
	inoRef map[uint64]int

	onSync func() error
}

// NewHost wraps fsys for mounting.
func NewHost(fsys *FileSystem) *Host {
	return &Host{
		fsys:   fsys,
		inoIdx: map[uint64]string{1: "/"},
		inoRef: map[uint64]int{1: 1},
	}
}

// Root returns the root node to pass to fs.Mount.
func (h *Host) Root() fs.InodeEmbedder {
	return &arhNode{host: h, path: "/"}
}

// inodeHash derives a stable, non-zero 64-bit inode number from a path, since ardfs
// has no stable numeric inode space of its own to draw on.
func inodeHash(path string) uint64 {
	if path == "/" {
		return 1
	}
	h := fnv.New64a()
	h.Write([]byte(path))
	v := h.Sum64()
	if v <= 1 {
		v += 2
	}
	return v
}

func (h *Host) acquire(path string) uint64 {
	ino := inodeHash(path)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inoIdx[ino] = path
	h.inoRef[ino]++
	return ino
}

func (h *Host) release(ino uint64, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inoRef[ino] -= n
	if h.inoRef[ino] <= 0 {
		delete(h.inoRef, ino)
		delete(h.inoIdx, ino)
	}
}

// errnoFor maps ardfs sentinel errors to FUSE error codes.
func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoEntry):
		return syscall.ENOENT
	case errors.Is(err, ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, ErrExtendedFileName):
		return syscall.EINVAL
	case errors.Is(err, ErrNotDirectory):
		return syscall.ENOTDIR
	default:
		return syscall.EIO
	}
}

type arhNode struct {
	fs.Inode
	host *Host
	path string
}

var (
	_ fs.NodeLookuper  = (*arhNode)(nil)
	_ fs.NodeReaddirer = (*arhNode)(nil)
	_ fs.NodeGetattrer = (*arhNode)(nil)
	_ fs.NodeOpener    = (*arhNode)(nil)
	_ fs.NodeReader    = (*arhNode)(nil)
	_ fs.NodeWriter    = (*arhNode)(nil)
	_ fs.NodeCreater   = (*arhNode)(nil)
	_ fs.NodeUnlinker  = (*arhNode)(nil)
	_ fs.NodeRmdirer   = (*arhNode)(nil)
	_ fs.NodeRenamer   = (*arhNode)(nil)
	_ fs.NodeFsyncer   = (*arhNode)(nil)
)

func (n *arhNode) child(name string) (*arhNode, error) {
	p, err := Path(n.path).Join(name)
	if err != nil {
		return nil, err
	}
	return &arhNode{host: n.host, path: string(p)}, nil
}

func (n *arhNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if n.host.fsys.IsDir(n.path) {
		out.Mode = syscall.S_IFDIR | 0o755
		return 0
	}
	meta, ok := n.host.fsys.GetFileInfo(n.path)
	if !ok {
		return syscall.ENOENT
	}
	out.Mode = syscall.S_IFREG | 0o644
	out.Size = meta.ActualSize()
	return 0
}

func (n *arhNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, err := n.child(name)
	if err != nil {
		return nil, errnoFor(err)
	}
	if n.host.fsys.IsDir(child.path) {
		out.Mode = syscall.S_IFDIR | 0o755
		ino := n.host.acquire(child.path)
		return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR, Ino: ino}), 0
	}
	if meta, ok := n.host.fsys.GetFileInfo(child.path); ok {
		out.Mode = syscall.S_IFREG | 0o644
		out.Size = meta.ActualSize()
		ino := n.host.acquire(child.path)
		return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG, Ino: ino}), 0
	}
	return nil, syscall.ENOENT
}

func (n *arhNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	dir, ok := n.host.fsys.GetDir(n.path)
	if !ok {
		return nil, syscall.ENOTDIR
	}
	entries := dir.List()
	list := make([]fuse.DirEntry, 0, len(entries)+1)
	for _, e := range entries {
		mode := uint32(fuse.S_IFREG)
		if e.IsDir {
			mode = fuse.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: e.Name, Mode: mode})
	}
	if len(list) == 0 {
		list = append(list, fuse.DirEntry{Name: placeholderName, Mode: fuse.S_IFREG})
	}
	return fs.NewListDirStream(list), 0
}

func (n *arhNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.path == "/"+placeholderName || hasPlaceholderSuffix(n.path) {
		return nil, 0, syscall.ENOENT
	}
	if _, ok := n.host.fsys.GetFileInfo(n.path); !ok {
		return nil, 0, syscall.ENOENT
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func hasPlaceholderSuffix(p string) bool {
	return len(p) >= len(placeholderName) && p[len(p)-len(placeholderName):] == placeholderName
}

func (n *arhNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	buf, err := n.host.fsys.ReadFileRange(n.path, uint64(off), uint64(len(dest)))
	if err != nil {
		return nil, errnoFor(err)
	}
	return fuse.ReadResultData(buf), 0
}

func (n *arhNode) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	existing, err := n.host.fsys.ReadFile(n.path)
	if err != nil && !errors.Is(err, ErrNoEntry) {
		return 0, errnoFor(err)
	}
	end := off + int64(len(data))
	if int64(len(existing)) < end {
		grown := make([]byte, end)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[off:end], data)
	if err := n.host.fsys.WriteFile(n.path, existing, CompressionStandard); err != nil {
		return 0, errnoFor(err)
	}
	return uint32(len(data)), 0
}

func (n *arhNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	child, err := n.child(name)
	if err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	if _, err := n.host.fsys.CreateFile(child.path); err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	out.Mode = syscall.S_IFREG | 0o644
	ino := n.host.acquire(child.path)
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG, Ino: ino})
	return inode, nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *arhNode) Unlink(ctx context.Context, name string) syscall.Errno {
	child, err := n.child(name)
	if err != nil {
		return errnoFor(err)
	}
	return errnoFor(n.host.fsys.DeleteFile(child.path))
}

func (n *arhNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	child, err := n.child(name)
	if err != nil {
		return errnoFor(err)
	}
	return errnoFor(n.host.fsys.DeleteEmptyDir(child.path))
}

func (n *arhNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	oldChild, err := n.child(name)
	if err != nil {
		return errnoFor(err)
	}
	np, ok := newParent.(*arhNode)
	if !ok {
		return syscall.EXDEV
	}
	newChild, err := np.child(newName)
	if err != nil {
		return errnoFor(err)
	}
	if n.host.fsys.IsDir(oldChild.path) {
		return errnoFor(n.host.fsys.RenameDir(oldChild.path, newChild.path))
	}
	return errnoFor(n.host.fsys.RenameFile(oldChild.path, newChild.path))
}

func (n *arhNode) Fsync(ctx context.Context, fh fs.FileHandle, flags uint32) syscall.Errno {
	return n.host.syncer()
}

// syncer runs the callback registered with OnSync, which writes META back to disk;
// with no callback registered (nil, the zero value) Fsync is a no-op, which is correct
// for a read-only mount.
func (h *Host) syncer() syscall.Errno {
	if h.onSync == nil {
		return 0
	}
	if err := h.onSync(); err != nil {
		return syscall.EIO
	}
	return 0
}

// OnSync registers the callback Fsync invokes to persist the META file. The Host does
// not call it on unmount.
func (h *Host) OnSync(f func() error) {
	h.onSync = f
}
