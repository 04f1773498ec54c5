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

// Package triedb verifies Merkle-Patricia account and storage proofs against
// trusted execution layer roots.
package triedb

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"
)

// proofDatabase loads the proof nodes into a throwaway database keyed by
// node hash. Nothing in it is trusted until trie.VerifyProof has walked it
// from the root.
func proofDatabase(proof [][]byte) *memorydb.Database {
	db := memorydb.NewWithCap(len(proof))
	for _, node := range proof {
		db.Put(crypto.Keccak256(node), node)
	}
	return db
}

// get resolves the value stored under keccak256(key). A nil value with a nil
// error means the proof shows the key to be absent.
func get(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	value, err := trie.VerifyProof(root, crypto.Keccak256(key), proofDatabase(proof))
	if err != nil {
		return nil, &TrieNodeError{Err: err}
	}
	return value, nil
}

// VerifyAccountStorageRoot checks that the account of the given contract has
// the claimed storage root in the state trie rooted at stateRoot. The state
// root must come from a verified header.
func VerifyAccountStorageRoot(stateRoot common.Hash, address common.Address, proof [][]byte, storageRoot common.Hash) error {
	enc, err := get(stateRoot, address.Bytes(), proof)
	if err != nil {
		return err
	}
	if enc == nil {
		return &ValueMissingError{Value: address.Bytes()}
	}
	var account ethtypes.StateAccount
	if err := rlp.DecodeBytes(enc, &account); err != nil {
		return &RLPDecodeError{Err: err}
	}
	if account.Root != storageRoot {
		return &ValueMismatchError{Expected: storageRoot.Bytes(), Actual: account.Root.Bytes()}
	}
	return nil
}

// VerifyStorageProof checks a single storage slot against a storage root. If
// value is nil the proof must show the slot to be empty, otherwise the slot
// must hold exactly the RLP encoding of the value. An empty storage trie
// holds no slots and needs no proof.
func VerifyStorageProof(storageRoot common.Hash, key common.Hash, value *uint256.Int, proof [][]byte) error {
	var (
		stored []byte
		err    error
	)
	if storageRoot != ethtypes.EmptyRootHash {
		if stored, err = get(storageRoot, key.Bytes(), proof); err != nil {
			return err
		}
	}
	if value == nil {
		if stored != nil {
			return &ValueMismatchError{Actual: stored}
		}
		return nil
	}
	want, err := rlp.EncodeToBytes(value.Bytes())
	if err != nil {
		return err
	}
	if stored == nil {
		return &ValueMissingError{Value: want}
	}
	if !bytes.Equal(stored, want) {
		return &ValueMismatchError{Expected: want, Actual: stored}
	}
	return nil
}
