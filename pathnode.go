package ardfs

// BlockSize is the number of trie node slots allocated together whenever a new child
// block is needed. The base of a block is always the node
// vector's length at allocation time, so base^c stays inside the block for all
// c in [0, BlockSize).
const BlockSize = 128

// rawDictNode is the two-int32 on-disk representation of a single trie node.
type rawDictNode struct {
	Next int32
	Prev int32
}

// dictNodeKind discriminates the four logical variants a trie node can hold, encoded
// losslessly in the (next, prev) pair.
type dictNodeKind int

const (
	nodeFree dictNodeKind = iota
	nodeRoot
	nodeOccupied
	nodeLeaf
)

// dictNode is the tagged-union in-memory form of a trie node.
type dictNode struct {
	kind dictNodeKind

	// prev is the parent index; meaningless (zero) for Free and Root.
	prev int32

	// next is either the child block base (Root/Occupied) or, for Leaf, the encoded
	// string_offset such that raw.Next == -stringOffset.
	next int32
}

func freeNode() dictNode {
	return dictNode{kind: nodeFree}
}

func rootNode(next int32) dictNode {
	return dictNode{kind: nodeRoot, next: next}
}

func occupiedNode(prev, next int32) dictNode {
	return dictNode{kind: nodeOccupied, prev: prev, next: next}
}

func leafNode(prev int32, stringOffset int32) dictNode {
	return dictNode{kind: nodeLeaf, prev: prev, next: stringOffset}
}

func (n dictNode) isFree() bool {
	return n.kind == nodeFree
}

func (n dictNode) isLeaf() bool {
	return n.kind == nodeLeaf
}

// isChild reports whether n's parent link equals parent; Free and Root nodes have no
// parent and are never a child of anything.
func (n dictNode) isChild(parent int32) bool {
	switch n.kind {
	case nodeOccupied, nodeLeaf:
		return n.prev == parent
	default:
		return false
	}
}

// hasNext reports whether n carries an onward child-block address (Root or Occupied).
func (n dictNode) hasNext() bool {
	return n.kind == nodeRoot || n.kind == nodeOccupied
}

// childBlock returns the child block base address of a Root/Occupied node.
func (n dictNode) childBlock() int32 {
	return n.next
}

// stringOffset returns the string-table offset of a Leaf node.
func (n dictNode) stringOffset() int32 {
	return n.next
}

// nextAfterByte returns the index of the child addressed by XOR-ing this node's child
// block base with the given path byte.
func (n dictNode) nextAfterByte(b byte) int32 {
	return n.next ^ int32(b)
}

// attachNext sets or updates a node's child block base, promoting Free to Root and
// Leaf to Occupied. The Leaf case arises when a newly inserted path collides with an
// existing leaf's stored tail partway through: the old leaf gains descendants of its
// own and so stops being a leaf, but its parent link (prev) must survive the
// promotion unchanged.
func (n *dictNode) attachNext(next int32) {
	switch n.kind {
	case nodeFree:
		n.kind = nodeRoot
		n.next = next
	case nodeRoot, nodeOccupied:
		n.next = next
	case nodeLeaf:
		n.kind = nodeOccupied
		n.next = next
	}
}

// attachPrev sets a node's parent link, promoting Root to Occupied.
func (n *dictNode) attachPrev(prev int32) {
	switch n.kind {
	case nodeFree:
		panic("ardfs: cannot attachPrev to a free node")
	case nodeRoot:
		n.kind = nodeOccupied
		n.prev = prev
	case nodeOccupied, nodeLeaf:
		n.prev = prev
	}
}

func dictNodeFromRaw(raw rawDictNode) dictNode {
	switch {
	case raw.Prev < 0 && raw.Next < 0:
		return freeNode()
	case raw.Prev < 0 && raw.Next >= 0:
		return rootNode(raw.Next)
	case raw.Prev >= 0 && raw.Next < 0:
		return leafNode(raw.Prev, -raw.Next)
	default: // Prev >= 0 && Next >= 0
		return occupiedNode(raw.Prev, raw.Next)
	}
}

func (n dictNode) toRaw() rawDictNode {
	switch n.kind {
	case nodeFree:
		return rawDictNode{Next: -1, Prev: -1}
	case nodeRoot:
		return rawDictNode{Next: n.next, Prev: -1}
	case nodeOccupied:
		return rawDictNode{Next: n.next, Prev: n.prev}
	case nodeLeaf:
		return rawDictNode{Next: -n.next, Prev: n.prev}
	default:
		panic("ardfs: invalid dict node kind")
	}
}
