package ardfs

import "fmt"

// PathTrie is the XOR-indexed trie over path bytes. Node 0 is always the
// root; it starts out Free until the first Insert promotes it to Root by attaching a
// child block.
type PathTrie struct {
	nodes []dictNode
}

// NewPathTrie returns an empty trie containing only the unallocated root slot.
func NewPathTrie() *PathTrie {
	return &PathTrie{nodes: []dictNode{freeNode()}}
}

// pathTrieFromRaw decodes a flat array of two-int32 node pairs as read from the META
// path-trie section.
func pathTrieFromRaw(raw []rawDictNode) *PathTrie {
	nodes := make([]dictNode, len(raw))
	for i, r := range raw {
		nodes[i] = dictNodeFromRaw(r)
	}
	return &PathTrie{nodes: nodes}
}

// toRaw encodes the trie back to its flat two-int32-per-node on-disk form.
func (t *PathTrie) toRaw() []rawDictNode {
	raw := make([]rawDictNode, len(t.nodes))
	for i, n := range t.nodes {
		raw[i] = n.toRaw()
	}
	return raw
}

// Len returns the number of node slots, including Free ones.
func (t *PathTrie) Len() int {
	return len(t.nodes)
}

// Clone returns a deep copy of the trie's node vector. Insert uses this to give its
// caller atomic semantics: mutate the clone, install it only once every step succeeds.
func (t *PathTrie) Clone() *PathTrie {
	nodes := make([]dictNode, len(t.nodes))
	copy(nodes, t.nodes)
	return &PathTrie{nodes: nodes}
}

// Lookup walks the trie consuming bytes of path, returning the file_id and leaf index
// recorded at the end of a successful match.
func (t *PathTrie) Lookup(path []byte, strings *StringTable) (fileID uint32, leafIdx int32, ok bool) {
	cur := int32(0)
	curNode := t.nodes[0]
	rest := path

	for !curNode.isLeaf() {
		if len(rest) == 0 {
			// The path is fully consumed but we're sitting on a non-leaf node. An
			// empty-tail entry is represented as a self-loop sentinel (an Occupied
			// node that is its own child); an Occupied node carries no string_offset
			// to resolve a file id from regardless, so both that case and the
			// general non-leaf case end up "not found" here.
			return 0, 0, false
		}
		if !curNode.hasNext() {
			return 0, 0, false
		}
		next := curNode.nextAfterByte(rest[0])
		if next < 0 || int(next) >= len(t.nodes) || !t.nodes[next].isChild(cur) {
			return 0, 0, false
		}
		cur = next
		curNode = t.nodes[next]
		rest = rest[1:]
	}

	tail, id, err := strings.Get(uint32(curNode.stringOffset()))
	if err != nil {
		return 0, 0, false
	}
	if tail != string(rest) {
		return 0, 0, false
	}
	return id, cur, true
}

// FullPath reconstructs the absolute path stored at leaf index leafIdx by walking
// parent links to the root and XOR-ing each step's index against its parent's child
// block base.
func (t *PathTrie) FullPath(leafIdx int32, strings *StringTable) (Path, error) {
	node := t.nodes[leafIdx]
	if !node.isLeaf() {
		return "", fmt.Errorf("ardfs: full path requested from a non-leaf node: %w", ErrParse)
	}

	tail, _, err := strings.Get(uint32(node.stringOffset()))
	if err != nil {
		return "", err
	}
	rev := []byte(tail)
	reverseBytes(rev)

	nodeIdx := leafIdx
	cur := node
	for {
		prev, ok := cur.previous()
		if !ok {
			break
		}
		curIdx := nodeIdx
		nodeIdx = prev
		cur = t.nodes[nodeIdx]
		rev = append(rev, byte(int32(curIdx)^cur.next))
	}

	reverseBytes(rev)
	full := make([]byte, 0, len(rev)+1)
	full = append(full, '/')
	full = append(full, rev...)
	return Path(full), nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// allocBlock appends a fresh block of BlockSize Free nodes and returns its base
// address. If parent currently has an onward child block, every node in that old,
// smaller block belonging to parent is relocated into the new block at the same
// XOR-relative position, grandchildren's prev links are repointed, and the old slots
// are freed. Finally parent's next is updated to the new base.
func (t *PathTrie) allocBlock(parent int32) int32 {
	base := int32(len(t.nodes))
	for i := 0; i < BlockSize; i++ {
		t.nodes = append(t.nodes, freeNode())
	}

	if t.nodes[parent].hasNext() {
		oldNext := t.nodes[parent].childBlock()

		for c := int32(0); c < BlockSize; c++ {
			fromIdx := oldNext ^ c
			if fromIdx < 0 || int(fromIdx) >= len(t.nodes) {
				continue
			}
			node := t.nodes[fromIdx]
			if !node.isChild(parent) {
				continue
			}

			toIdx := base ^ c
			t.nodes[toIdx] = node

			if node.hasNext() {
				grandNext := node.childBlock()
				for gc := int32(0); gc < BlockSize; gc++ {
					gIdx := grandNext ^ gc
					if gIdx < 0 || int(gIdx) >= len(t.nodes) {
						continue
					}
					if t.nodes[gIdx].isChild(fromIdx) {
						t.nodes[gIdx].attachPrev(toIdx)
					}
				}
			}

			t.nodes[fromIdx] = freeNode()
		}
	}

	t.nodes[parent].attachNext(base)
	return base
}

// Insert adds fileID at path into a clone of t, returning the mutated clone on
// success. The receiver is left untouched either way; the caller installs the
// returned trie only once Insert (and anything else in the same transaction)
// succeeds, giving create-file callers atomic semantics.
//
// strings is mutated directly (append-only); its growth is never rolled back even
// on a failed Insert, matching the design note that dead string-table bytes are
// harmless.
func (t *PathTrie) Insert(path []byte, fileID uint32, strings *StringTable) (*PathTrie, error) {
	working := t.Clone()

	cur := int32(0)
	lastParent := int32(0)
	rest := path

	for !working.nodes[cur].isLeaf() {
		if len(rest) == 0 {
			break
		}
		next := working.nodes[cur].nextAfterByte(rest[0])
		if next < 0 || int(next) >= len(working.nodes) || !working.nodes[next].isChild(cur) {
			break
		}
		lastParent = cur
		cur = next
		rest = rest[1:]
	}

	finalIdx := cur
	finalNode := working.nodes[cur]

	if len(rest) == 0 && !finalNode.isLeaf() {
		// Only reachable through the self-loop ambiguity noted in Lookup; a correctly
		// used FileSystem never calls Insert for a path Lookup already resolved.
		return nil, ErrAlreadyExists
	}

	if finalNode.isLeaf() {
		oldStr, oldFile, err := strings.Get(uint32(finalNode.stringOffset()))
		if err != nil {
			return nil, err
		}
		nodeBlock := working.nodes[finalNode.prev].childBlock()
		last := finalIdx

		for len(rest) > 0 && len(oldStr) > 0 && oldStr[0] == rest[0] {
			chr := int32(rest[0])
			nodeIdx := nodeBlock ^ chr
			nextNode := working.nodes[nodeIdx]

			var next int32
			if nextNode.isFree() {
				next = nodeIdx
				working.nodes[next] = occupiedNode(last, 0xFEFE)
				working.nodes[last].attachNext(nodeBlock)
			} else {
				nodeBlock = working.allocBlock(last)
				next = nodeBlock ^ chr
				working.nodes[next] = occupiedNode(last, 0xBADD)
			}

			last = next
			oldStr = oldStr[1:]
			rest = rest[1:]
		}

		if len(rest) == 0 || len(oldStr) == 0 {
			return nil, ErrExtendedFileName
		}

		nextBlock := working.allocBlock(last)
		working.nodes[last].attachNext(nextBlock)

		oldTailOffset, err := strings.Push(oldStr[1:], oldFile)
		if err != nil {
			return nil, err
		}
		oldIdx := nextBlock ^ int32(oldStr[0])
		working.nodes[oldIdx] = leafNode(last, int32(oldTailOffset))

		finalIdx = nextBlock ^ int32(rest[0])
		finalNode = working.nodes[finalIdx]
		lastParent = last
		rest = rest[1:]
	}

	// finalIdx == 0 with a Free node only happens on the very first insert into an
	// empty trie: cur never advances past the root, since root has no child block to
	// walk yet. Root must still be promoted to Root (with a real child block) rather
	// than overwritten in place as a Leaf, or a second insert sharing a path prefix
	// would later try to treat the root leaf's self-referential parent link as a
	// block base.
	if !finalNode.isFree() || finalIdx == 0 {
		idx := working.allocBlock(finalIdx) ^ int32(rest[0])
		lastParent = finalIdx
		finalIdx = idx
		rest = rest[1:]
	}

	strOffset, err := strings.Push(string(rest), fileID)
	if err != nil {
		return nil, err
	}
	working.nodes[finalIdx] = leafNode(lastParent, int32(strOffset))

	return working, nil
}

// Remove frees the leaf at leafIdx. Dangling interior chains above it are left in
// place rather than compacted; the space cost is accepted in exchange for not
// needing to walk and rewrite every sibling on every delete.
func (t *PathTrie) Remove(leafIdx int32) {
	t.nodes[leafIdx] = freeNode()
}

// Leaves returns the indices of every Leaf node currently in the trie, used once per
// load to build the DirTree and by the reachability invariant checks.
func (t *PathTrie) Leaves() []int32 {
	var out []int32
	for i, n := range t.nodes {
		if n.isLeaf() {
			out = append(out, int32(i))
		}
	}
	return out
}

func (n dictNode) previous() (int32, bool) {
	switch n.kind {
	case nodeOccupied, nodeLeaf:
		return n.prev, true
	default:
		return 0, false
	}
}
