package ardfs

import "testing"

func TestDirTreeInsertAndList(t *testing.T) {
	dt := NewDirTree()
	dt.insertFile("/a/b.txt")
	dt.insertFile("/a/c.txt")
	dt.insertFile("/d.txt")

	if !dt.IsDir("/a") {
		t.Error("/a should be a directory")
	}
	if dt.IsDir("/d.txt") {
		t.Error("/d.txt should not be a directory")
	}

	root := dt.List()
	if len(root) != 2 {
		t.Fatalf("root List() = %v, want 2 entries", root)
	}
	if root[0].Name != "a" || !root[0].IsDir {
		t.Errorf("root[0] = %+v, want directory a", root[0])
	}
	if root[1].Name != "d.txt" || root[1].IsDir {
		t.Errorf("root[1] = %+v, want file d.txt", root[1])
	}

	sub, ok := dt.GetDir("/a")
	if !ok {
		t.Fatal("GetDir(/a) failed")
	}
	entries := sub.List()
	if len(entries) != 2 || entries[0].Name != "b.txt" || entries[1].Name != "c.txt" {
		t.Errorf("sub List() = %v, want b.txt, c.txt", entries)
	}
}

func TestDirTreeRemoveFilePrunesEmptyDir(t *testing.T) {
	dt := NewDirTree()
	dt.insertFile("/only/file.txt")
	dt.removeFile("/only/file.txt")

	if dt.IsDir("/only") {
		t.Error("expected /only to be pruned after its only file was removed")
	}
	if len(dt.List()) != 0 {
		t.Errorf("expected empty root after prune, got %v", dt.List())
	}
}

func TestDirTreeRemoveFileKeepsSiblingDir(t *testing.T) {
	dt := NewDirTree()
	dt.insertFile("/keep/a.txt")
	dt.insertFile("/keep/b.txt")
	dt.removeFile("/keep/a.txt")

	if !dt.IsDir("/keep") {
		t.Fatal("expected /keep to survive since b.txt remains")
	}
	entries := mustGetDir(t, dt, "/keep").List()
	if len(entries) != 1 || entries[0].Name != "b.txt" {
		t.Errorf("entries = %v, want only b.txt", entries)
	}
}

func TestDirTreeChildrenPaths(t *testing.T) {
	dt := NewDirTree()
	dt.insertFile("/x/y/z.txt")
	dt.insertFile("/x/w.txt")

	sub, ok := dt.GetDir("/x")
	if !ok {
		t.Fatal("GetDir(/x) failed")
	}
	paths := sub.ChildrenPaths()
	want := map[string]bool{"/w.txt": true, "/y/z.txt": true}
	if len(paths) != len(want) {
		t.Fatalf("ChildrenPaths = %v, want %v", paths, want)
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestBuildDirTreeFromTrie(t *testing.T) {
	trie := NewPathTrie()
	strings := NewStringTable(nil)
	var err error
	trie, err = trie.Insert([]byte("one/two"), 1, strings)
	if err != nil {
		t.Fatal(err)
	}
	trie, err = trie.Insert([]byte("three"), 2, strings)
	if err != nil {
		t.Fatal(err)
	}

	dt, err := buildDirTree(trie, strings)
	if err != nil {
		t.Fatal(err)
	}
	if !dt.IsDir("/one") {
		t.Error("expected /one to be a directory")
	}
	if !dt.IsDir("/") == false {
		// root is always a directory by construction; nothing further to assert here.
	}
}

func mustGetDir(t *testing.T, dt *DirTree, path string) *DirTree {
	t.Helper()
	sub, ok := dt.GetDir(path)
	if !ok {
		t.Fatalf("GetDir(%q) failed", path)
	}
	return sub
}
