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

package light

import (
	"bytes"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/triedb"
)

// VerifyMembership checks a JSON encoded StorageProof against the storage
// root of a trusted consensus state. The proven slot must be the commitment
// slot of path[0]. If value is nil the proof must show the slot to be empty,
// otherwise the proven value must equal value as a 32 byte big endian word.
func VerifyMembership(trusted *ConsensusState, clientState *ClientState, proof []byte, path [][]byte, value []byte) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	var storageProof StorageProof
	if err := json.Unmarshal(proof, &storageProof); err != nil {
		return ErrStorageProofDecode
	}
	expectedKey := IbcCommitmentKey(path[0], clientState.commitmentSlot())
	if expectedKey != storageProof.Key {
		return &InvalidCommitmentKeyError{Expected: expectedKey, Found: storageProof.Key}
	}

	var provenValue *uint256.Int
	if value != nil {
		provenValue = (*uint256.Int)(&storageProof.Value)
		word := provenValue.Bytes32()
		if !bytes.Equal(word[:], value) {
			return &StoredValueMismatchError{Expected: value, Actual: word[:]}
		}
	}
	err := triedb.VerifyStorageProof(trusted.StorageRoot, storageProof.Key, provenValue, proofNodes(storageProof.Proof))
	if err != nil {
		return &StorageProofError{Err: err}
	}
	return nil
}

// IbcCommitmentKey returns the storage slot holding the commitment of path in
// a mapping at the given slot: keccak256(keccak256(path) || slot).
func IbcCommitmentKey(path []byte, slot *uint256.Int) common.Hash {
	slotWord := slot.Bytes32()
	return crypto.Keccak256Hash(crypto.Keccak256(path), slotWord[:])
}
