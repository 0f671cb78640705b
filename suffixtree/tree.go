// Package suffixtree builds suffix trees over byte buffers with Ukkonen's
// online algorithm and answers longest-previous-match queries against them.
//
// A Tree is meant to be kept and rebuilt: every node it ever allocated is
// recycled by the next Build, so after the first few builds a Tree stops
// allocating altogether.  Node-level state never outlives a Build; only the
// buffer contents and MatchInfo results do.
//
// A Tree is not safe for concurrent use.  Use one Tree per goroutine.
package suffixtree

// Tree is a suffix tree engine.  The zero value is an empty Tree, ready to
// Build.
type Tree struct {
	// buf holds the built bytes followed by Terminator.
	buf   []uint16
	arena arena
	built bool
	// leaves is counted by annotate.
	leaves int

	// Construction state, meaningful only inside Build.
	position     int
	remainder    int
	activeNode   nodeIndex
	activeEdge   int
	activeLength int
	// lastInternal is the branch most recently created or visited during the
	// current extension, still waiting for its suffix link.  rootIndex means
	// none.
	lastInternal nodeIndex

	stack []frame
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Build builds the tree over all of data.
func (t *Tree) Build(data []byte) error {
	return t.BuildRange(data, 0, len(data))
}

// BuildRange builds the tree over data[start:start+size].  Arguments are
// validated before any state changes, so a failed BuildRange leaves a
// previously built tree intact.
func (t *Tree) BuildRange(data []byte, start, size int) error {
	if start < 0 || start > len(data) {
		return argumentError("start", start, ErrInvalidArgument)
	}
	if size < 0 || size > len(data)-start {
		return argumentError("size", size, ErrInvalidArgument)
	}
	t.reset(size + 1)
	for _, b := range data[start : start+size] {
		t.extend(int(b))
	}
	t.extend(Terminator)
	t.annotate()
	t.built = true
	return nil
}

// Size is the length of the built buffer including the terminator, or 0 if
// the tree has not been built.
func (t *Tree) Size() int {
	return len(t.buf)
}

// At returns the buffer symbol at index: a byte value, or Terminator for the
// last index.
func (t *Tree) At(index int) (int, error) {
	if !t.built {
		return 0, ErrNotBuilt
	}
	if index < 0 || index >= len(t.buf) {
		return 0, argumentError("index", index, ErrIndexOutOfRange)
	}
	return int(t.buf[index]), nil
}

func (t *Tree) reset(capacity int) {
	t.built = false
	if cap(t.buf) < capacity {
		t.buf = make([]uint16, 0, capacity)
	} else {
		t.buf = t.buf[:0]
	}
	t.activeNode = t.arena.allocateRoot()
	t.position = -1
	t.remainder = 0
	t.activeEdge = 0
	t.activeLength = 0
	t.lastInternal = rootIndex
}

// extend appends value to the buffer and updates the tree so that it holds
// every suffix of the buffer so far, implicitly or explicitly.
func (t *Tree) extend(value int) {
	t.buf = append(t.buf, uint16(value))
	t.position = len(t.buf) - 1
	t.lastInternal = rootIndex
	t.remainder++

	for t.remainder > 0 {
		if t.activeLength == 0 {
			t.activeEdge = t.position
		}
		active := t.arena.at(t.activeNode)
		edgeValue := int(t.buf[t.activeEdge])
		stemIndex := active.child(edgeValue)

		if stemIndex == 0 {
			active.setChild(edgeValue, t.arena.allocateLeaf(t.position))
			t.linkFrom(t.activeNode)
		} else {
			stem := t.arena.at(stemIndex)
			if edgeLength := stem.length(t.position); t.activeLength >= edgeLength {
				// Walk down; nothing inserted yet.
				t.activeEdge += edgeLength
				t.activeLength -= edgeLength
				t.activeNode = stemIndex
				continue
			}
			if int(t.buf[stem.start+t.activeLength]) == value {
				// Already present.  So are all shorter pending suffixes.
				t.activeLength++
				t.linkFrom(t.activeNode)
				break
			}
			splitIndex := t.arena.allocate(stem.start, stem.start+t.activeLength)
			split := t.arena.at(splitIndex)
			active.setChild(edgeValue, splitIndex)
			split.setChild(value, t.arena.allocateLeaf(t.position))
			stem.start += t.activeLength
			split.setChild(int(t.buf[stem.start]), stemIndex)
			t.linkFrom(splitIndex)
		}

		t.remainder--
		if t.activeNode == rootIndex && t.activeLength > 0 {
			t.activeLength--
			// The next pending suffix is the last remainder symbols.
			t.activeEdge = t.position - t.remainder + 1
		} else {
			t.activeNode = t.arena.at(t.activeNode).link
		}
	}
}

// linkFrom points the pending branch's suffix link at idx, then makes idx the
// pending branch.
func (t *Tree) linkFrom(idx nodeIndex) {
	if t.lastInternal != rootIndex {
		t.arena.at(t.lastInternal).link = idx
	}
	t.lastInternal = idx
}

type frame struct {
	idx  nodeIndex
	next int
}

// annotate closes every open leaf, then records each node's string depth and
// the earliest suffix start below it.
func (t *Tree) annotate() {
	total := len(t.buf)
	root := t.arena.at(rootIndex)
	root.depth = 0
	root.minStart = total
	t.leaves = 0
	stack := append(t.stack[:0], frame{idx: rootIndex})
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := t.arena.at(top.idx)
		if top.next == len(n.active) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := t.arena.at(stack[len(stack)-1].idx)
				parent.minStart = min(parent.minStart, n.minStart)
			}
			continue
		}
		childIndex := n.children[n.active[top.next]]
		top.next++
		c := t.arena.at(childIndex)
		if c.end == openEnd {
			c.end = total
		}
		c.depth = n.depth + c.end - c.start
		if c.isLeaf() {
			t.leaves++
			c.minStart = total - c.depth
			n.minStart = min(n.minStart, c.minStart)
			continue
		}
		c.minStart = total
		stack = append(stack, frame{idx: childIndex})
	}
	t.stack = stack
}

// Stats describes the shape of a built tree and its arena.
type Stats struct {
	// Size is the buffer length including the terminator.
	Size int
	// Nodes is the number of nodes in the tree, root included.
	Nodes int
	// Leaves is the number of leaves, one per suffix.
	Leaves int
	// Capacity is the number of nodes the arena holds for reuse.
	Capacity int
}

// Stats reports the shape of the last Build, counted from the tree itself,
// along with the arena's capacity.  Only Capacity is set before a Build.
func (t *Tree) Stats() Stats {
	s := Stats{
		Capacity: t.arena.cap(),
	}
	if !t.built {
		return s
	}
	s.Size = len(t.buf)
	s.Nodes = t.arena.len()
	s.Leaves = t.leaves
	return s
}
