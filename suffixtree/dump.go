package suffixtree

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/xlab/treeprint"
)

// Dump writes an indented rendering of the tree to w, one line per edge.
// Leaves also show the start of the suffix they spell.  Intended for small
// inputs.
func (t *Tree) Dump(w io.Writer) error {
	if !t.built {
		return ErrNotBuilt
	}
	tree := treeprint.NewWithRoot(t.arena.at(rootIndex).label(rootIndex))
	t.dumpChildren(tree, rootIndex)
	_, err := io.WriteString(w, tree.String())
	return err
}

func (t *Tree) dumpChildren(branch treeprint.Tree, idx nodeIndex) {
	n := t.arena.at(idx)
	values := slices.Clone(n.active)
	slices.Sort(values)
	for _, value := range values {
		childIndex := n.children[value]
		c := t.arena.at(childIndex)
		text := fmt.Sprintf("%s [%d,%d)", t.edgeLabel(c), c.start, c.end)
		if c.isLeaf() {
			branch.AddMetaNode(c.label(childIndex), fmt.Sprintf("%s suffix %d", text, c.minStart))
			continue
		}
		t.dumpChildren(branch.AddMetaBranch(c.label(childIndex), text), childIndex)
	}
}

func (t *Tree) edgeLabel(n *node) string {
	label := make([]byte, 0, n.end-n.start)
	terminated := false
	for _, value := range t.buf[n.start:n.end] {
		if value == Terminator {
			terminated = true
			break
		}
		label = append(label, byte(value))
	}
	quoted := strconv.QuoteToASCII(string(label))
	if terminated {
		quoted += "$"
	}
	return quoted
}
