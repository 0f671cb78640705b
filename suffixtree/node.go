package suffixtree

// AlphabetSize is the number of symbols a node can branch on: every byte
// value plus the terminator.
const AlphabetSize = 257

// Terminator is the symbol appended after the input bytes.  It lies outside
// the byte alphabet, so every suffix ends at its own leaf.
const Terminator = 256

// openEnd marks a leaf edge which extends to the engine's current position.
const openEnd = -1

// nodeIndex addresses a node within the arena.  The root always sits at index
// 0; because the root is never anyone's child, a zero child slot means "no
// child", and a zero suffix link means "fall back to the root".
type nodeIndex int32

const rootIndex nodeIndex = 0

// node is the edge leading into it, the children hanging off its far end and
// a suffix link.
type node struct {
	// start and end delimit the edge label in the buffer, end exclusive or
	// openEnd.
	start, end int
	link       nodeIndex
	children   [AlphabetSize]nodeIndex
	// active lists the child slots that have been set since the last reset.
	active []uint16

	// Filled in once construction completes: the string depth at the far end
	// of the edge, and the earliest suffix start found in the subtree.
	depth    int
	minStart int
}

func newNode(start, end int) *node {
	return &node{
		start: start,
		end:   end,
	}
}

func (n *node) child(value int) nodeIndex {
	return n.children[value]
}

// setChild attaches idx under value, remembering the slot so reset only has
// to visit the slots actually in use.
func (n *node) setChild(value int, idx nodeIndex) {
	if n.children[value] == 0 && idx != 0 {
		n.active = append(n.active, uint16(value))
	}
	n.children[value] = idx
}

// length is the edge length, resolving an open end against the engine's
// current position.
func (n *node) length(position int) int {
	end := n.end
	if end == openEnd {
		end = position + 1
	}
	return end - n.start
}

func (n *node) isLeaf() bool {
	return len(n.active) == 0
}

// reset prepares a recycled node to represent the edge [start, end).
func (n *node) reset(start, end int) *node {
	n.link = rootIndex
	for _, value := range n.active {
		n.children[value] = 0
	}
	n.active = n.active[:0]
	n.start = start
	n.end = end
	n.depth = 0
	n.minStart = 0
	return n
}

// label names the node for debug output.
func (n *node) label(idx nodeIndex) string {
	if idx == rootIndex {
		return "root"
	}
	if n.isLeaf() {
		return "leaf"
	}
	return "branch"
}
