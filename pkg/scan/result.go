/*
	Copyright 2023 Google Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package scan

import "github.com/googlestaging/lpmatch/suffixtree"

// Result holds the matches found by a scan.
type Result struct {
	// Matches has one entry per input position, with absolute offsets.
	Matches []suffixtree.MatchInfo
	// Blocks is the number of blocks scanned, CacheHits how many of them were
	// answered from the block cache.
	Blocks, CacheHits int
}

// Segment is an input position together with its match.
type Segment struct {
	Offset int
	Match  suffixtree.MatchInfo
}

// Segments walks the input greedily: a position whose match is at least
// minLength long yields a Segment and the walk skips past the matched bytes;
// any other position is stepped over.  The Segments never overlap.
func (r *Result) Segments(minLength int) []Segment {
	minLength = max(minLength, 1)
	var ret []Segment
	for i := 0; i < len(r.Matches); {
		m := r.Matches[i]
		if m.Length < minLength {
			i++
			continue
		}
		ret = append(ret, Segment{Offset: i, Match: m})
		i += m.Length
	}
	return ret
}

// Summary aggregates a Result.
type Summary struct {
	Positions int
	// Matched is the number of positions with an earlier occurrence.
	Matched int
	// Longest is the longest match found, at its earliest position.
	Longest Segment
	// MeanLength is the mean match length over matched positions.
	MeanLength float64
}

// Summary counts the matched positions of r and finds the longest match.
func (r *Result) Summary() Summary {
	s := Summary{Positions: len(r.Matches)}
	total := 0
	for i, m := range r.Matches {
		if m.Length == 0 {
			continue
		}
		s.Matched++
		total += m.Length
		if m.Length > s.Longest.Match.Length {
			s.Longest = Segment{Offset: i, Match: m}
		}
	}
	if s.Matched > 0 {
		s.MeanLength = float64(total) / float64(s.Matched)
	}
	return s
}
