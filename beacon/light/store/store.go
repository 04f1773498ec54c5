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

// Package store persists light client states in a key-value database.
//
// Every client has one client state and any number of consensus states, each
// stored under the slot it was created for. Consensus states are immutable
// once written.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/golang/snappy"
	"github.com/sunyihoo/ethereum-light-client/beacon/light"
)

var (
	ErrClientNotFound         = errors.New("client state not found")
	ErrConsensusStateNotFound = errors.New("consensus state not found")
	ErrConsensusStateExists   = errors.New("a conflicting consensus state already exists at this slot")
)

// consensusCacheSize is the number of decoded consensus states kept in memory.
const consensusCacheSize = 256

// Store keeps client and consensus states of any number of light clients.
// Reads and writes are safe for concurrent use; read-modify-write sequences
// of one client are serialized with Lock.
type Store struct {
	db ethdb.KeyValueStore

	clientCache    *fastcache.Cache                         // encoded client states by key
	consensusCache *lru.Cache[string, *light.ConsensusState] // decoded consensus states by key

	lock        sync.Mutex
	clientLocks map[string]*sync.Mutex
}

// New creates a store on top of an opened database. cacheMB megabytes are
// allocated to the client state cache.
func New(db ethdb.KeyValueStore, cacheMB int) *Store {
	return &Store{
		db:             db,
		clientCache:    fastcache.New(max(cacheMB, 1) * 1024 * 1024),
		consensusCache: lru.NewCache[string, *light.ConsensusState](consensusCacheSize),
		clientLocks:    make(map[string]*sync.Mutex),
	}
}

// Open opens the configured database and creates a store on top of it.
func Open(config *Config) (*Store, error) {
	db, err := openKeyValueDatabase(config)
	if err != nil {
		return nil, err
	}
	return New(db, config.Cache/2), nil
}

// Close releases the caches and closes the database.
func (s *Store) Close() error {
	s.clientCache.Reset()
	s.consensusCache.Purge()
	return s.db.Close()
}

// Stat returns the statistics of the underlying database.
func (s *Store) Stat() (string, error) {
	return s.db.Stat()
}

// Lock acquires the lock of a single client and returns the function
// releasing it.
func (s *Store) Lock(id string) (unlock func()) {
	s.lock.Lock()
	mu, ok := s.clientLocks[id]
	if !ok {
		mu = new(sync.Mutex)
		s.clientLocks[id] = mu
	}
	s.lock.Unlock()

	mu.Lock()
	return mu.Unlock
}

// ReadClientState retrieves the client state of the given client.
func (s *Store) ReadClientState(id string) (*light.ClientState, error) {
	if err := validateClientID(id); err != nil {
		return nil, err
	}
	key := clientStateKey(id)
	enc, ok := s.clientCache.HasGet(nil, key)
	if !ok {
		var err error
		if enc, err = s.db.Get(key); err != nil {
			if has, _ := s.db.Has(key); !has {
				return nil, fmt.Errorf("%w: %s", ErrClientNotFound, id)
			}
			return nil, err
		}
		s.clientCache.Set(key, enc)
	}
	state := new(light.ClientState)
	if err := json.Unmarshal(enc, state); err != nil {
		return nil, fmt.Errorf("invalid client state of %s: %w", id, err)
	}
	return state, nil
}

// WriteClientState stores the client state of the given client, replacing
// any previous one.
func (s *Store) WriteClientState(id string, state *light.ClientState) error {
	if err := validateClientID(id); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	key, enc, err := s.putClientState(batch, id, state)
	if err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.clientCache.Set(key, enc)
	return nil
}

func (s *Store) putClientState(w ethdb.KeyValueWriter, id string, state *light.ClientState) ([]byte, []byte, error) {
	enc, err := json.Marshal(state)
	if err != nil {
		return nil, nil, err
	}
	key := clientStateKey(id)
	if err := w.Put(key, enc); err != nil {
		return nil, nil, err
	}
	return key, enc, nil
}

// HasClient reports whether a client state exists for the given client.
func (s *Store) HasClient(id string) (bool, error) {
	if err := validateClientID(id); err != nil {
		return false, err
	}
	key := clientStateKey(id)
	if s.clientCache.Has(key) {
		return true, nil
	}
	return s.db.Has(key)
}

// ReadConsensusState retrieves the consensus state stored at the given slot.
// The returned state may be shared and must not be modified.
func (s *Store) ReadConsensusState(id string, slot uint64) (*light.ConsensusState, error) {
	if err := validateClientID(id); err != nil {
		return nil, err
	}
	key := consensusStateKey(id, slot)
	if state, ok := s.consensusCache.Get(string(key)); ok {
		return state, nil
	}
	enc, err := s.readConsensusStateJSON(key)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: client %s, slot %d", ErrConsensusStateNotFound, id, slot)
	}
	state := new(light.ConsensusState)
	if err := json.Unmarshal(enc, state); err != nil {
		return nil, fmt.Errorf("invalid consensus state of %s at slot %d: %w", id, slot, err)
	}
	s.consensusCache.Add(string(key), state)
	return state, nil
}

// readConsensusStateJSON returns the decompressed record at key, or nil if
// there is none.
func (s *Store) readConsensusStateJSON(key []byte) ([]byte, error) {
	if has, err := s.db.Has(key); err != nil || !has {
		return nil, err
	}
	blob, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	return snappy.Decode(nil, blob)
}

// WriteConsensusState stores a consensus state at the given slot. Writing
// the same state twice is a no-op. A stored state can only be replaced to add
// its next sync committee, any other change is an error.
func (s *Store) WriteConsensusState(id string, slot uint64, state *light.ConsensusState) error {
	return s.Commit(id, nil, slot, state)
}

func (s *Store) putConsensusState(w ethdb.KeyValueWriter, id string, slot uint64, state *light.ConsensusState) error {
	enc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	key := consensusStateKey(id, slot)
	existing, err := s.readConsensusStateJSON(key)
	if err != nil {
		return err
	}
	if existing != nil {
		if bytes.Equal(existing, enc) {
			return nil
		}
		stored := new(light.ConsensusState)
		if err := json.Unmarshal(existing, stored); err != nil || !canReplace(stored, state) {
			return fmt.Errorf("%w: client %s, slot %d", ErrConsensusStateExists, id, slot)
		}
	}
	if err := w.Put(key, snappy.Encode(nil, enc)); err != nil {
		return err
	}
	s.consensusCache.Add(string(key), state.Copy())
	log.Debug("Stored consensus state", "client", id, "slot", slot, "size", len(enc))
	return nil
}

// canReplace reports whether a stored consensus state may be overwritten by
// state. The only permitted change is learning the next sync committee.
func canReplace(stored, state *light.ConsensusState) bool {
	if stored.NextSyncCommittee != nil || state.NextSyncCommittee == nil {
		return false
	}
	filled := *state
	filled.NextSyncCommittee = nil
	return filled == *stored
}

// Commit atomically stores a consensus state at the given slot together with
// the client state. A nil client state leaves the stored one unchanged.
func (s *Store) Commit(id string, clientState *light.ClientState, slot uint64, consensusState *light.ConsensusState) error {
	if err := validateClientID(id); err != nil {
		return err
	}
	var (
		batch      = s.db.NewBatch()
		key, enc   []byte
		err        error
		cachedKeys []string
	)
	if err := s.putConsensusState(batch, id, slot, consensusState); err != nil {
		return err
	}
	cachedKeys = append(cachedKeys, string(consensusStateKey(id, slot)))
	if clientState != nil {
		if key, enc, err = s.putClientState(batch, id, clientState); err != nil {
			s.evict(cachedKeys)
			return err
		}
	}
	if err := batch.Write(); err != nil {
		s.evict(cachedKeys)
		return err
	}
	if clientState != nil {
		s.clientCache.Set(key, enc)
	}
	return nil
}

// evict drops cache entries of records that were not written.
func (s *Store) evict(keys []string) {
	for _, key := range keys {
		s.consensusCache.Remove(key)
	}
}

// ConsensusSlots returns the slots of all stored consensus states of a client
// in ascending order.
func (s *Store) ConsensusSlots(id string) ([]uint64, error) {
	if err := validateClientID(id); err != nil {
		return nil, err
	}
	var (
		prefix = consensusStateKeyPrefix(id)
		iter   = s.db.NewIterator(prefix, nil)
		slots  []uint64
	)
	defer iter.Release()

	for iter.Next() {
		if len(iter.Key()) != len(prefix)+8 {
			log.Warn("Invalid key length in the light client database", "key", fmt.Sprintf("%#x", iter.Key()))
			continue
		}
		slots = append(slots, binary.BigEndian.Uint64(iter.Key()[len(prefix):]))
	}
	return slots, iter.Error()
}

// LatestConsensusSlot returns the highest slot a consensus state of the
// client is stored at. The second return value is false if there is none.
func (s *Store) LatestConsensusSlot(id string) (uint64, bool, error) {
	slots, err := s.ConsensusSlots(id)
	if err != nil || len(slots) == 0 {
		return 0, false, err
	}
	return slots[len(slots)-1], true, nil
}
