package suffixtree

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// bruteForceMatch is the quadratic definition of the longest previous match.
func bruteForceMatch(data []byte, index int) MatchInfo {
	var best MatchInfo
	for j := 0; j < index; j++ {
		l := 0
		for index+l < len(data) && data[j+l] == data[index+l] {
			l++
		}
		if l > best.Length {
			best = MatchInfo{Start: j, Length: l}
		}
	}
	return best
}

func allMatches(t *testing.T, tree *Tree, n int) []MatchInfo {
	t.Helper()
	ret := make([]MatchInfo, n)
	for i := range ret {
		m, err := tree.LongestPreviousMatch(i)
		if err != nil {
			t.Fatalf("LongestPreviousMatch(%d) = %v, wanted nil error", i, err)
		}
		ret[i] = m
	}
	return ret
}

func TestLongestPreviousMatch(t *testing.T) {
	for _, test := range []struct {
		description string
		data        string
		index       int
		want        MatchInfo
	}{{
		description: "repeated triple",
		data:        "abcabcabc",
		index:       3,
		want:        MatchInfo{Start: 0, Length: 6},
	}, {
		description: "overlapping run",
		data:        "aaaa",
		index:       1,
		want:        MatchInfo{Start: 0, Length: 3},
	}, {
		description: "no repeats",
		data:        "abc",
		index:       0,
		want:        MatchInfo{},
	}, {
		description: "later occurrence does not count",
		data:        "abcab",
		index:       0,
		want:        MatchInfo{},
	}, {
		description: "earliest occurrence wins ties",
		data:        "abxabyab",
		index:       6,
		want:        MatchInfo{Start: 0, Length: 2},
	}, {
		description: "last byte",
		data:        "abcabcabc",
		index:       8,
		want:        MatchInfo{Start: 2, Length: 1},
	}, {
		description: "mississippi",
		data:        "mississippi",
		index:       4,
		want:        MatchInfo{Start: 1, Length: 4},
	}} {
		t.Run(test.description, func(t *testing.T) {
			tree := New()
			if err := tree.Build([]byte(test.data)); err != nil {
				t.Fatalf("Build(%q) = %v, wanted nil", test.data, err)
			}
			got, err := tree.LongestPreviousMatch(test.index)
			if err != nil {
				t.Fatalf("LongestPreviousMatch(%d) = %v, wanted nil error", test.index, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("LongestPreviousMatch(%d) on %q, diff (-want +got) %s", test.index, test.data, diff)
			}
		})
	}
}

func TestLongestPreviousMatchAgreesWithBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	tree := New()
	for _, alphabet := range []int{1, 2, 3, 4, 26, 256} {
		for round := 0; round < 40; round++ {
			data := make([]byte, rnd.Intn(200)+1)
			for i := range data {
				data[i] = byte(rnd.Intn(alphabet))
			}
			if err := tree.Build(data); err != nil {
				t.Fatalf("Build() = %v, wanted nil", err)
			}
			want := make([]MatchInfo, len(data))
			for i := range want {
				want[i] = bruteForceMatch(data, i)
			}
			if diff := cmp.Diff(want, allMatches(t, tree, len(data))); diff != "" {
				t.Fatalf("matches for %v disagree with brute force, diff (-want +got) %s", data, diff)
			}
		}
	}
}

func TestMatchesRepeatEarlierBytes(t *testing.T) {
	data := []byte("she sells sea shells by the sea shore; the shells she sells are sea shells")
	tree := New()
	if err := tree.Build(data); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	for i, m := range allMatches(t, tree, len(data)) {
		if m.Length == 0 {
			if bytes.IndexByte(data[:i], data[i]) >= 0 {
				t.Errorf("no match at %d, but %q occurs earlier", i, data[i])
			}
			continue
		}
		if m.Start >= i {
			t.Errorf("match at %d starts at %d, wanted an earlier start", i, m.Start)
		}
		if !bytes.Equal(data[m.Start:m.End()], data[i:i+m.Length]) {
			t.Errorf("match %s at %d: %q != %q", m, i, data[m.Start:m.End()], data[i:i+m.Length])
		}
	}
}

// leafPaths spells out every root-to-leaf path, keyed by the suffix start the
// leaf reports.
func leafPaths(t *testing.T, tree *Tree) map[int][]uint16 {
	t.Helper()
	ret := map[int][]uint16{}
	var walk func(idx nodeIndex, prefix []uint16)
	walk = func(idx nodeIndex, prefix []uint16) {
		n := tree.arena.at(idx)
		if idx != rootIndex {
			if n.length(tree.position) <= 0 {
				t.Errorf("node %d has edge [%d,%d), wanted a positive length", idx, n.start, n.end)
			}
			prefix = append(prefix[:len(prefix):len(prefix)], tree.buf[n.start:n.end]...)
		}
		if n.isLeaf() {
			if _, ok := ret[n.minStart]; ok {
				t.Errorf("two leaves spell suffix %d", n.minStart)
			}
			ret[n.minStart] = prefix
			return
		}
		if idx != rootIndex && len(n.active) < 2 {
			t.Errorf("branch %d has %d children, wanted at least 2", idx, len(n.active))
		}
		for _, value := range n.active {
			walk(n.children[value], prefix)
		}
	}
	walk(rootIndex, nil)
	return ret
}

func TestEverySuffixHasOneLeaf(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	tree := New()
	inputs := []string{"", "a", "abcabcabc", "aaaa", "mississippi", "banana", "abab\x00abab\xff"}
	for i := 0; i < 20; i++ {
		var sb strings.Builder
		for j := rnd.Intn(100); j >= 0; j-- {
			sb.WriteByte("ab"[rnd.Intn(2)])
		}
		inputs = append(inputs, sb.String())
	}
	for _, input := range inputs {
		if err := tree.Build([]byte(input)); err != nil {
			t.Fatalf("Build(%q) = %v, wanted nil", input, err)
		}
		paths := leafPaths(t, tree)
		if len(paths) != tree.Size() {
			t.Errorf("%q: %d leaves, wanted %d", input, len(paths), tree.Size())
		}
		if got := tree.Stats().Leaves; got != len(paths) {
			t.Errorf("%q: Stats().Leaves = %d, wanted %d", input, got, len(paths))
		}
		for start := 0; start < tree.Size(); start++ {
			if diff := cmp.Diff(tree.buf[start:], paths[start]); diff != "" {
				t.Errorf("%q: suffix %d, diff (-want +got) %s", input, start, diff)
			}
		}
	}
}

func TestRebuildRecyclesNodes(t *testing.T) {
	tree := New()
	first := []byte("the rain in spain stays mainly in the plain")
	second := []byte("xyzzy")
	if err := tree.Build(first); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	want := allMatches(t, tree, len(first))
	firstStats := tree.Stats()

	if err := tree.Build(second); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	secondStats := tree.Stats()
	if secondStats.Capacity != firstStats.Capacity {
		t.Errorf("arena capacity went from %d to %d, wanted it kept", firstStats.Capacity, secondStats.Capacity)
	}
	if secondStats.Nodes >= firstStats.Nodes {
		t.Errorf("smaller input uses %d nodes, wanted fewer than %d", secondStats.Nodes, firstStats.Nodes)
	}

	for i := 0; i < 2; i++ {
		if err := tree.Build(first); err != nil {
			t.Fatalf("Build() = %v, wanted nil", err)
		}
		if diff := cmp.Diff(want, allMatches(t, tree, len(first))); diff != "" {
			t.Errorf("rebuild %d, diff (-want +got) %s", i, diff)
		}
		if diff := cmp.Diff(firstStats, tree.Stats()); diff != "" {
			t.Errorf("rebuild %d stats, diff (-want +got) %s", i, diff)
		}
	}
}

func TestBuildRange(t *testing.T) {
	data := []byte("xxabcxx")
	ranged, standalone := New(), New()
	if err := ranged.BuildRange(data, 2, 3); err != nil {
		t.Fatalf("BuildRange() = %v, wanted nil", err)
	}
	if err := standalone.Build([]byte("abc")); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	if ranged.Size() != 4 {
		t.Errorf("Size() = %d, wanted 4", ranged.Size())
	}
	for i := 0; i < ranged.Size(); i++ {
		got, err := ranged.At(i)
		if err != nil {
			t.Fatalf("At(%d) = %v, wanted nil error", i, err)
		}
		want, _ := standalone.At(i)
		if got != want {
			t.Errorf("At(%d) = %d, wanted %d", i, got, want)
		}
	}
	if diff := cmp.Diff(allMatches(t, standalone, 3), allMatches(t, ranged, 3)); diff != "" {
		t.Errorf("range build differs from standalone build, diff (-want +got) %s", diff)
	}
	if last, _ := ranged.At(3); last != Terminator {
		t.Errorf("At(3) = %d, wanted the terminator", last)
	}
}

func TestBuildRangeMatchesSlicedBuild(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	data := make([]byte, 500)
	for i := range data {
		data[i] = byte(rnd.Intn(3))
	}
	ranged, sliced := New(), New()
	for round := 0; round < 30; round++ {
		start := rnd.Intn(len(data))
		size := rnd.Intn(len(data) - start + 1)
		if err := ranged.BuildRange(data, start, size); err != nil {
			t.Fatalf("BuildRange(%d, %d) = %v, wanted nil", start, size, err)
		}
		if err := sliced.Build(data[start : start+size]); err != nil {
			t.Fatalf("Build() = %v, wanted nil", err)
		}
		if diff := cmp.Diff(allMatches(t, sliced, size), allMatches(t, ranged, size)); diff != "" {
			t.Errorf("BuildRange(%d, %d), diff (-want +got) %s", start, size, diff)
		}
	}
}

func TestBuildRejectsBadRanges(t *testing.T) {
	data := []byte("abcdef")
	for _, test := range []struct {
		start, size int
		wantName    string
		wantValue   int
	}{
		{start: -1, size: 2, wantName: "start", wantValue: -1},
		{start: 7, size: 0, wantName: "start", wantValue: 7},
		{start: 0, size: -3, wantName: "size", wantValue: -3},
		{start: 4, size: 3, wantName: "size", wantValue: 3},
		{start: 0, size: 7, wantName: "size", wantValue: 7},
	} {
		t.Run(fmt.Sprintf("start=%d,size=%d", test.start, test.size), func(t *testing.T) {
			tree := New()
			if err := tree.Build([]byte("abab")); err != nil {
				t.Fatalf("Build() = %v, wanted nil", err)
			}
			err := tree.BuildRange(data, test.start, test.size)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("BuildRange() = %v, wanted ErrInvalidArgument", err)
			}
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("BuildRange() = %T, wanted *ArgumentError", err)
			}
			if argErr.Name != test.wantName || argErr.Value != test.wantValue {
				t.Errorf("BuildRange() blamed %s=%d, wanted %s=%d", argErr.Name, argErr.Value, test.wantName, test.wantValue)
			}
			// The earlier tree survives.
			got, err := tree.LongestPreviousMatch(2)
			if err != nil {
				t.Fatalf("LongestPreviousMatch() = %v, wanted nil error", err)
			}
			if diff := cmp.Diff(MatchInfo{Start: 0, Length: 2}, got); diff != "" {
				t.Errorf("tree changed after a rejected build, diff (-want +got) %s", diff)
			}
		})
	}
}

func TestZeroValueTree(t *testing.T) {
	var tree Tree
	if diff := cmp.Diff(Stats{}, tree.Stats()); diff != "" {
		t.Errorf("Stats() before Build, diff (-want +got) %s", diff)
	}
	if err := tree.Build([]byte("banana")); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	m, err := tree.LongestPreviousMatch(3)
	if err != nil {
		t.Fatalf("LongestPreviousMatch(3) = %v, wanted nil", err)
	}
	if diff := cmp.Diff(MatchInfo{Start: 1, Length: 3}, m); diff != "" {
		t.Errorf("LongestPreviousMatch(3), diff (-want +got) %s", diff)
	}
	if got := tree.Stats().Leaves; got != 7 {
		t.Errorf("Stats().Leaves = %d, wanted 7", got)
	}
}

func TestNotBuilt(t *testing.T) {
	tree := New()
	if _, err := tree.LongestPreviousMatch(0); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("LongestPreviousMatch() = %v, wanted ErrNotBuilt", err)
	}
	if _, err := tree.At(0); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("At() = %v, wanted ErrNotBuilt", err)
	}
	if err := tree.Dump(&bytes.Buffer{}); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Dump() = %v, wanted ErrNotBuilt", err)
	}
	if tree.Size() != 0 {
		t.Errorf("Size() = %d, wanted 0", tree.Size())
	}
}

func TestIndexOutOfRange(t *testing.T) {
	tree := New()
	if err := tree.Build([]byte("abc")); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	for _, index := range []int{-1, 3, 4, 100} {
		if _, err := tree.LongestPreviousMatch(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("LongestPreviousMatch(%d) = %v, wanted ErrIndexOutOfRange", index, err)
		}
	}
	for _, index := range []int{-1, 4} {
		if _, err := tree.At(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("At(%d) = %v, wanted ErrIndexOutOfRange", index, err)
		}
	}

	if err := tree.Build(nil); err != nil {
		t.Fatalf("Build(nil) = %v, wanted nil", err)
	}
	if _, err := tree.LongestPreviousMatch(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("LongestPreviousMatch(0) on empty input = %v, wanted ErrIndexOutOfRange", err)
	}
}

func TestDump(t *testing.T) {
	tree := New()
	if err := tree.Build([]byte("abab")); err != nil {
		t.Fatalf("Build() = %v, wanted nil", err)
	}
	var out bytes.Buffer
	if err := tree.Dump(&out); err != nil {
		t.Fatalf("Dump() = %v, wanted nil", err)
	}
	for _, want := range []string{
		"root",
		`"ab" [0,2)`,
		`"b" [1,2)`,
		`"ab"$ [2,5) suffix 0`,
		`"ab"$ [2,5) suffix 1`,
		`""$ [4,5) suffix 2`,
		`""$ [4,5) suffix 4`,
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Dump() output lacks %q:\n%s", want, out.String())
		}
	}
}

func BenchmarkBuild(b *testing.B) {
	rnd := rand.New(rand.NewSource(4))
	data := make([]byte, 1<<14)
	for i := range data {
		data[i] = byte(rnd.Intn(16))
	}
	tree := New()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tree.Build(data); err != nil {
			b.Fatal(err)
		}
	}
}
