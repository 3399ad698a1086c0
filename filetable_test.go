package ardfs

import "testing"

func TestFileTablePushGetDelete(t *testing.T) {
	ft := NewFileTable()

	id1 := ft.Push()
	id2 := ft.Push()
	if id1 != 0 || id2 != 1 {
		t.Fatalf("Push ids = %d, %d, want 0, 1", id1, id2)
	}

	m1, ok := ft.Get(id1)
	if !ok || m1.ID != id1 {
		t.Fatalf("Get(id1) = %+v, %v", m1, ok)
	}

	old, ok := ft.Delete(id1)
	if !ok || old.ID != id1 {
		t.Fatalf("Delete(id1) = %+v, %v", old, ok)
	}
	m1, ok = ft.Get(id1)
	if !ok || !m1.isZero() {
		t.Fatalf("expected deleted slot to be zeroed, got %+v", m1)
	}
}

// TestFileTableRecycleLIFO covers the "largest recycled id reused first" rule.
func TestFileTableRecycleLIFO(t *testing.T) {
	ft := NewFileTable()
	id0 := ft.Push()
	id1 := ft.Push()
	id2 := ft.Push()

	ft.Delete(id0)
	ft.Delete(id2)

	reused := ft.Push()
	if reused != id2 {
		t.Fatalf("Push after deleting %d and %d = %d, want %d (largest recycled)", id0, id2, reused, id2)
	}

	reused2 := ft.Push()
	if reused2 != id0 {
		t.Fatalf("second Push = %d, want %d", reused2, id0)
	}

	fresh := ft.Push()
	if fresh != uint32(ft.Len()-1) {
		t.Fatalf("Push with empty recycle bin should append a new slot, got %d", fresh)
	}
	_ = id1
}

func TestFileMetaActualSize(t *testing.T) {
	uncompressed := FileMeta{CompressedSize: 100}
	if uncompressed.ActualSize() != 100 {
		t.Errorf("uncompressed ActualSize = %d, want 100", uncompressed.ActualSize())
	}

	compressed := FileMeta{CompressedSize: 40, UncompressedSize: 100}
	if compressed.ActualSize() != 100 {
		t.Errorf("compressed ActualSize = %d, want 100", compressed.ActualSize())
	}
}

func TestRecycleBinSortedDedup(t *testing.T) {
	var bin RecycleBin
	bin.Push(5)
	bin.Push(2)
	bin.Push(5) // duplicate, should not be added twice
	bin.Push(9)

	ids := bin.IDs()
	want := []uint32{2, 5, 9}
	if len(ids) != len(want) {
		t.Fatalf("IDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
	}

	id, ok := bin.Pop()
	if !ok || id != 9 {
		t.Fatalf("Pop = %d, %v, want 9, true", id, ok)
	}
}
