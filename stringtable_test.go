package ardfs

import "testing"

func TestStringTablePushGet(t *testing.T) {
	st := NewStringTable(nil)

	off1, err := st.Push("hello", 1)
	if err != nil {
		t.Fatal(err)
	}
	off2, err := st.Push("world", 2)
	if err != nil {
		t.Fatal(err)
	}

	tail, id, err := st.Get(off1)
	if err != nil || tail != "hello" || id != 1 {
		t.Fatalf("Get(off1) = %q, %d, %v", tail, id, err)
	}
	tail, id, err = st.Get(off2)
	if err != nil || tail != "world" || id != 2 {
		t.Fatalf("Get(off2) = %q, %d, %v", tail, id, err)
	}
}

func TestStringTableGetOutOfRange(t *testing.T) {
	st := NewStringTable(nil)
	if _, _, err := st.Get(100); err == nil {
		t.Fatal("expected error for out-of-range offset")
	}
}

func TestStringTableClone(t *testing.T) {
	st := NewStringTable(nil)
	st.Push("a", 1)
	clone := st.Clone()
	clone.Push("b", 2)
	if st.Len() == clone.Len() {
		t.Fatal("clone should be independent of the original")
	}
}
