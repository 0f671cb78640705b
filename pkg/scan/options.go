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
	"fmt"
	"log/slog"
	"runtime"
)

const (
	// DefaultBlockSize is the number of positions each engine queries.
	DefaultBlockSize = 8 << 10
	// DefaultHistory is how far before its block each engine may look.
	DefaultHistory = 8 << 10
	// DefaultCacheSize is the number of block results kept for reuse.
	DefaultCacheSize = 256
)

// Option configures a Scanner.
type Option func(o *options) error

type options struct {
	blockSize       int
	history         int
	concurrency     uint
	inputBufferSize uint
	cacheSize       int
	logger          *slog.Logger
}

func buildOptions(fns ...Option) (*options, error) {
	ret := &options{
		blockSize:       DefaultBlockSize,
		history:         DefaultHistory,
		concurrency:     uint(runtime.GOMAXPROCS(0)),
		inputBufferSize: 1,
		cacheSize:       DefaultCacheSize,
		logger:          slog.Default(),
	}
	for _, fn := range fns {
		if err := fn(ret); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// BlockSize sets how many positions a single engine answers for.  Larger
// blocks mean fewer, bigger trees; every tree node costs about a kilobyte.
func BlockSize(blockSize int) Option {
	return func(o *options) error {
		if blockSize < 1 {
			return fmt.Errorf("block size must be at least 1, got %d", blockSize)
		}
		o.blockSize = blockSize
		return nil
	}
}

// History sets how many bytes before its block a match may start.  Zero
// confines matches to their own block.
func History(history int) Option {
	return func(o *options) error {
		if history < 0 {
			return fmt.Errorf("history must not be negative, got %d", history)
		}
		o.history = history
		return nil
	}
}

// Concurrency sets the number of blocks built at once, and so the number of
// engines kept.  Defaults to GOMAXPROCS.
func Concurrency(concurrency uint) Option {
	return func(o *options) error {
		if concurrency == 0 {
			return fmt.Errorf("concurrency must be at least 1")
		}
		o.concurrency = concurrency
		return nil
	}
}

// InputBufferSize sets how many blocks may queue in front of each stage.
// Defaults to 1.
func InputBufferSize(inputBufferSize uint) Option {
	return func(o *options) error {
		if inputBufferSize == 0 {
			return fmt.Errorf("input buffer size must be at least 1")
		}
		o.inputBufferSize = inputBufferSize
		return nil
	}
}

// CacheSize sets how many block results are remembered, keyed by content.
// Zero disables the cache.
func CacheSize(cacheSize int) Option {
	return func(o *options) error {
		if cacheSize < 0 {
			return fmt.Errorf("cache size must not be negative, got %d", cacheSize)
		}
		o.cacheSize = cacheSize
		return nil
	}
}

// Logger sets the logger for per-block diagnostics.
func Logger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}
