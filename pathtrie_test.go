package ardfs

import "testing"

func TestPathTrieInsertLookup(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	trie, err := trie.Insert([]byte("foo/bar"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}
	trie, err = trie.Insert([]byte("foo/baz"), 2, strings)
	if err != nil {
		t.Fatal(err)
	}

	id, _, ok := trie.Lookup([]byte("foo/bar"), strings)
	if !ok || id != 1 {
		t.Fatalf("Lookup(foo/bar) = %d, %v, want 1, true", id, ok)
	}
	id, _, ok = trie.Lookup([]byte("foo/baz"), strings)
	if !ok || id != 2 {
		t.Fatalf("Lookup(foo/baz) = %d, %v, want 2, true", id, ok)
	}
	if _, _, ok := trie.Lookup([]byte("nope"), strings); ok {
		t.Fatal("Lookup(nope) should fail")
	}
}

func TestPathTrieFullPath(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	trie, err := trie.Insert([]byte("a/b/c"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}

	_, leafIdx, ok := trie.Lookup([]byte("a/b/c"), strings)
	if !ok {
		t.Fatal("lookup failed")
	}
	full, err := trie.FullPath(leafIdx, strings)
	if err != nil {
		t.Fatal(err)
	}
	if string(full) != "/a/b/c" {
		t.Errorf("FullPath = %q, want /a/b/c", full)
	}
}

// TestPathTrieExtendedFileName covers the case where one inserted tail is a strict
// prefix of another's remaining bytes at the point of divergence.
func TestPathTrieExtendedFileName(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	trie, err := trie.Insert([]byte("a.tar"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}
	_, err = trie.Insert([]byte("a.tar.gz"), 2, strings)
	if err == nil {
		t.Fatal("expected ErrExtendedFileName")
	}
}

func TestPathTrieInsertDuplicate(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	trie, err := trie.Insert([]byte("dup"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := trie.Insert([]byte("dup"), 2, strings); err == nil {
		t.Fatal("expected an error inserting a duplicate path")
	}
}

func TestPathTrieRemove(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	trie, err := trie.Insert([]byte("gone"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}
	_, leafIdx, ok := trie.Lookup([]byte("gone"), strings)
	if !ok {
		t.Fatal("lookup failed before remove")
	}
	trie.Remove(leafIdx)
	if _, _, ok := trie.Lookup([]byte("gone"), strings); ok {
		t.Fatal("lookup should fail after remove")
	}
}

// TestPathTrieManyInserts forces several block allocations/relocations and checks
// every inserted path is still reachable afterwards (reachability invariant).
func TestPathTrieManyInserts(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)

	// None of these is a byte-prefix of another: the trie cannot represent a path whose
	// leaf tail is fully consumed by a shorter sibling, so every entry here diverges
	// from its prefix-mates before running out of bytes.
	paths := []string{
		"aaa", "aab", "aac", "aad", "bba", "bbb", "c/d/e/f/g", "c/d/e/f/h",
		"dir1/file1", "dir1/file2", "dir2/file1", "xyzz", "xyzy", "xyzx",
	}
	for i, p := range paths {
		var err error
		trie, err = trie.Insert([]byte(p), uint32(i+1), strings)
		if err != nil {
			t.Fatalf("Insert(%q): %v", p, err)
		}
	}
	for i, p := range paths {
		id, _, ok := trie.Lookup([]byte(p), strings)
		if !ok || id != uint32(i+1) {
			t.Errorf("Lookup(%q) = %d, %v, want %d, true", p, id, ok, i+1)
		}
	}
}

func TestPathTrieToRawRoundTrip(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)
	trie, err := trie.Insert([]byte("roundtrip"), 7, strings)
	if err != nil {
		t.Fatal(err)
	}

	raw := trie.toRaw()
	restored := pathTrieFromRaw(raw)

	id, _, ok := restored.Lookup([]byte("roundtrip"), strings)
	if !ok || id != 7 {
		t.Fatalf("restored Lookup = %d, %v, want 7, true", id, ok)
	}
}
