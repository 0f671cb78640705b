package suffixtree

// arena recycles nodes across builds.  Each node carries a full child table,
// so rather than dropping the tree on rebuild, the arena keeps every node it
// ever made and hands them out again, clearing only the child slots that were
// actually used.
type arena struct {
	nodes []*node
	// used is the number of nodes handed out since the last clear; nodes past
	// it are stale and get reset on their way out.
	used int
}

// clear forgets every node handed out without touching the nodes themselves.
func (a *arena) clear() {
	a.used = 0
}

// allocateRoot hands out the first node of a fresh tree.  Its bounds are
// forced to -1 so it never forms a printable edge.
func (a *arena) allocateRoot() nodeIndex {
	a.clear()
	return a.allocate(-1, -1)
}

func (a *arena) allocateLeaf(start int) nodeIndex {
	return a.allocate(start, openEnd)
}

// allocate returns the index of a node spanning [start, end), reusing a
// previously built node when one is available.
func (a *arena) allocate(start, end int) nodeIndex {
	idx := nodeIndex(a.used)
	if a.used < len(a.nodes) {
		a.nodes[a.used].reset(start, end)
	} else {
		a.nodes = append(a.nodes, newNode(start, end))
	}
	a.used++
	return idx
}

func (a *arena) at(idx nodeIndex) *node {
	return a.nodes[idx]
}

// len is the number of nodes in use.
func (a *arena) len() int {
	return a.used
}

// cap is the number of nodes ever built.
func (a *arena) cap() int {
	return len(a.nodes)
}
