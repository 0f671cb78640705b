package suffixtree

import "fmt"

// MatchInfo locates an earlier occurrence of the bytes at a queried index.
// A zero Length means there is none.
type MatchInfo struct {
	Start  int
	Length int
}

// End is the index just past the earlier occurrence.
func (m MatchInfo) End() int {
	return m.Start + m.Length
}

// Distance is how far back from index the earlier occurrence begins.
func (m MatchInfo) Distance(index int) int {
	if m.Length == 0 {
		return 0
	}
	return index - m.Start
}

// String formats the match as start+length, or "no match".
func (m MatchInfo) String() string {
	if m.Length == 0 {
		return "no match"
	}
	return fmt.Sprintf("%d+%d", m.Start, m.Length)
}

// LongestPreviousMatch finds the longest run of bytes beginning at index that
// also begins somewhere before index.  The earlier occurrence may overlap
// index.  When several earlier occurrences tie, the earliest wins.
//
// index must lie within the built input: 0 <= index < Size()-1.
func (t *Tree) LongestPreviousMatch(index int) (MatchInfo, error) {
	if !t.built {
		return MatchInfo{}, ErrNotBuilt
	}
	if index < 0 || index >= len(t.buf)-1 {
		return MatchInfo{}, argumentError("index", index, ErrIndexOutOfRange)
	}
	var best MatchInfo
	cur := t.arena.at(rootIndex)
	for {
		// Every node along the path is a proper prefix of the suffix at
		// index, so index+depth never runs past the terminator.
		next := cur.child(int(t.buf[index+cur.depth]))
		if next == 0 {
			break
		}
		n := t.arena.at(next)
		if n.minStart >= index {
			// Only the suffix at index itself, or later ones, lie below.
			break
		}
		best = MatchInfo{Start: n.minStart, Length: n.depth}
		cur = n
	}
	return best, nil
}
