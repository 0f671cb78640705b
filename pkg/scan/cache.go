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

import (
	"slices"

	"github.com/googlestaging/lpmatch/suffixtree"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/sha256-simd"
)

// blockKey identifies a block by the bytes its engine is built over and where
// within them the queried positions begin.
type blockKey struct {
	digest  [sha256.Size]byte
	history int
}

func newBlockKey(window []byte, history int) blockKey {
	return blockKey{
		digest:  sha256.Sum256(window),
		history: history,
	}
}

// blockCache remembers block results, with match starts relative to the
// window the engine was built over.  Safe for concurrent use.
type blockCache struct {
	entries *lru.Cache[blockKey, []suffixtree.MatchInfo]
}

// newBlockCache returns nil if size is zero.
func newBlockCache(size int) (*blockCache, error) {
	if size == 0 {
		return nil, nil
	}
	entries, err := lru.New[blockKey, []suffixtree.MatchInfo](size)
	if err != nil {
		return nil, err
	}
	return &blockCache{entries: entries}, nil
}

func (c *blockCache) get(key blockKey) ([]suffixtree.MatchInfo, bool) {
	return c.entries.Get(key)
}

// add stores a copy of matches, which the caller may go on modifying.
func (c *blockCache) add(key blockKey, matches []suffixtree.MatchInfo) {
	c.entries.Add(key, slices.Clone(matches))
}

func (c *blockCache) len() int {
	return c.entries.Len()
}
