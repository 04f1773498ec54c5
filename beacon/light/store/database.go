// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Supported database backends.
const (
	BackendLevelDB = rawdb.DBLeveldb
	BackendPebble  = rawdb.DBPebble
	BackendMemory  = "memory"
)

// Config holds the settings of the light client database.
type Config struct {
	DataDir  string // Database directory, unused by the memory backend
	Backend  string // leveldb, pebble, memory or empty to detect
	Cache    int    // Megabytes of memory allocated to the database and store caches
	Handles  int    // Number of open file handles
	ReadOnly bool   `toml:"-"`
}

// DefaultConfig contains the default store settings.
var DefaultConfig = Config{
	Cache:   64,
	Handles: 64,
}

const (
	minCache   = 16
	minHandles = 16
	namespace  = "ethlc/db/"
)

// openKeyValueDatabase opens the configured key-value database.
//
//	                      backend == ""         backend != ""
//	                   +----------------------------------------
//	db is non-existent |  pebble default  |  specified backend
//	db is existent     |  from db         |  specified backend (if compatible)
func openKeyValueDatabase(config *Config) (ethdb.KeyValueStore, error) {
	if config.Backend == BackendMemory {
		log.Info("Using in-memory light client database")
		return memorydb.New(), nil
	}
	if config.Backend != "" && config.Backend != BackendLevelDB && config.Backend != BackendPebble {
		return nil, fmt.Errorf("unknown database backend %q", config.Backend)
	}
	if config.DataDir == "" {
		return nil, fmt.Errorf("database backend %q requires a data directory", config.Backend)
	}
	existing := rawdb.PreexistingDatabase(config.DataDir)
	if existing != "" && config.Backend != "" && config.Backend != existing {
		return nil, fmt.Errorf("database backend choice was %v but found pre-existing %v database in %s", config.Backend, existing, config.DataDir)
	}
	cache, handles := max(config.Cache/2, minCache), max(config.Handles, minHandles)

	if config.Backend == BackendLevelDB || existing == BackendLevelDB {
		log.Info("Using leveldb as the light client database", "dir", config.DataDir)
		return leveldb.NewCustom(config.DataDir, namespace, func(options *opt.Options) {
			options.OpenFilesCacheCapacity = handles
			options.BlockCacheCapacity = cache / 2 * opt.MiB
			options.WriteBuffer = cache / 4 * opt.MiB
			options.ReadOnly = config.ReadOnly
		})
	}
	log.Info("Using pebble as the light client database", "dir", config.DataDir)
	return pebble.New(config.DataDir, cache, handles, namespace, config.ReadOnly)
}
