package ardfs

import "testing"

func TestBlockAllocatorFindFreeEmpty(t *testing.T) {
	a := NewBlockAllocator(3) // 8-byte blocks
	if got := a.FindFree(16); got != 0 {
		t.Errorf("FindFree on empty allocator = %d, want 0", got)
	}
}

func TestBlockAllocatorMarkAndFindFreeAfter(t *testing.T) {
	a := NewBlockAllocator(3) // 8-byte blocks
	first := FileMeta{Offset: 0, CompressedSize: 16}
	a.Mark(&first, true)

	// The first two blocks (bytes 0..16) are occupied, so a fresh 8-byte request
	// should land at byte 16 (the free run inside the first word, middle-fit case).
	got := a.FindFree(8)
	if got != 16 {
		t.Errorf("FindFree(8) after marking [0,16) = %d, want 16", got)
	}
}

// TestBlockAllocatorMiddleFit covers the "fits entirely inside one word, surrounded by
// occupied blocks on both sides" case.
func TestBlockAllocatorMiddleFit(t *testing.T) {
	a := NewBlockAllocator(3)
	before := FileMeta{Offset: 0, CompressedSize: 8}   // block 0
	after := FileMeta{Offset: 24, CompressedSize: 8}    // block 3
	a.Mark(&before, true)
	a.Mark(&after, true)

	// Blocks 1 and 2 (bytes 8..24) are free, surrounded by occupied blocks.
	got := a.FindFree(16)
	if got != 8 {
		t.Errorf("FindFree(16) = %d, want 8 (middle gap)", got)
	}
}

func TestBlockAllocatorFreeAndReuse(t *testing.T) {
	a := NewBlockAllocator(3)
	f := FileMeta{Offset: 0, CompressedSize: 16}
	a.Mark(&f, true)
	a.Mark(&f, false)

	if got := a.FindFree(16); got != 0 {
		t.Errorf("FindFree(16) after freeing = %d, want 0", got)
	}
}

func TestBlockAllocatorFindReplaceSameSize(t *testing.T) {
	a := NewBlockAllocator(3)
	f := FileMeta{Offset: 8, CompressedSize: 16}
	a.Mark(&f, true)

	got := a.FindReplace(&f, 10) // still fits within the existing 16-byte allocation
	if got != f.Offset {
		t.Errorf("FindReplace with smaller/equal size = %d, want unchanged offset %d", got, f.Offset)
	}
}

func TestBlockAllocatorFindReplaceGrows(t *testing.T) {
	a := NewBlockAllocator(3)
	f := FileMeta{Offset: 0, CompressedSize: 8}
	other := FileMeta{Offset: 8, CompressedSize: 8}
	a.Mark(&f, true)
	a.Mark(&other, true)

	// Growing past the current allocation, with the neighboring block occupied by a
	// different file, must skip over it rather than reuse it.
	got := a.FindReplace(&f, 16)
	if got == f.Offset {
		t.Errorf("FindReplace should not return the old offset when growth collides with a live neighbor")
	}
}

func TestBlockAllocatorFromFileTable(t *testing.T) {
	ft := NewFileTable()
	id := ft.Push()
	m, _ := ft.Get(id)
	m.Offset = 0
	m.CompressedSize = 16

	a := blockAllocatorFromFileTable(3, ft)
	if got := a.FindFree(8); got != 16 {
		t.Errorf("rebuilt allocator FindFree(8) = %d, want 16", got)
	}
}
