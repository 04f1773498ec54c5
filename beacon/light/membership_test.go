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
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	membershipRoot  = common.HexToHash("0xe488caae2c0464e311e4a2df82bc74885fa81778d04131db6af3a451110a5eb5")
	membershipKey   = common.HexToHash("0x75d7411cb01daad167713b5a9b7219670f0e500653cbbcd45cfe1bfe04222459")
	membershipValue = uint256.MustFromHex("0xb2ae8ab0be3bda2f81dc166497902a1832fea11b886bc7a0980dec7a219582db")
	membershipPath  = hexutil.MustDecode("0x30372d74656e6465726d696e742d30010000000000000001")
	membershipProof = []hexutil.Bytes{
		hexutil.MustDecode("0xf8718080a0911797c4b8cdbd1d8fa643b31ff0a469fae0f9b2ecbb0fa45a5ebe497f5e7130a065ea7eb6ae4e9747a131961beda4e9fd3040521e58845f4a286fb472eb0415168080a057b16d9a3bbb2d106b4d1b12dca3504f61899c7c660b036848511426ed342dd680808080808080808080"),
		hexutil.MustDecode("0xf843a03d3c3bcf030006afea2a677a6ff5bf3f7f111e87461c8848cf062a5756d1a888a1a0b2ae8ab0be3bda2f81dc166497902a1832fea11b886bc7a0980dec7a219582db"),
	}

	absenceRoot  = common.HexToHash("0x8fce1302ff9ebea6343badec86e9814151872067d2dd47de08ec83e9bc7d22b3")
	absenceKey   = common.HexToHash("0x7a0c5ed5d5cb00ab03f4363e63deb3b05017026890db9f2110e931630567bf93")
	absencePath  = hexutil.MustDecode("0x30372d74656e6465726d696e742d30020000000000000001")
	absenceProof = []hexutil.Bytes{
		hexutil.MustDecode("0xf838a120290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e5639594eb9407e2a087056b69d43d21df69b82e31533c8a"),
	}
)

func membershipClient() *ClientState {
	return &ClientState{IbcCommitmentSlot: uint256.NewInt(1)}
}

func encodeStorageProof(t *testing.T, key common.Hash, value *uint256.Int, proof []hexutil.Bytes) []byte {
	t.Helper()
	enc, err := json.Marshal(&StorageProof{Key: key, Value: hexutil.U256(*value), Proof: proof})
	require.NoError(t, err)
	return enc
}

func TestIbcCommitmentKey(t *testing.T) {
	assert.Equal(t, membershipKey, IbcCommitmentKey(membershipPath, uint256.NewInt(1)))
	assert.Equal(t, absenceKey, IbcCommitmentKey(absencePath, uint256.NewInt(1)))
	assert.NotEqual(t, membershipKey, IbcCommitmentKey(membershipPath, uint256.NewInt(2)))
}

func TestVerifyMembership(t *testing.T) {
	var (
		state = &ConsensusState{StorageRoot: membershipRoot}
		proof = encodeStorageProof(t, membershipKey, membershipValue, membershipProof)
		word  = membershipValue.Bytes32()
	)
	require.NoError(t, VerifyMembership(state, membershipClient(), proof, [][]byte{membershipPath}, word[:]))

	// The same slot is not empty.
	zeroProof := encodeStorageProof(t, membershipKey, new(uint256.Int), membershipProof)
	var proofErr *StorageProofError
	require.ErrorAs(t, VerifyMembership(state, membershipClient(), zeroProof, [][]byte{membershipPath}, nil), &proofErr)

	// The caller's value must match the proven one.
	other := word
	other[31] ^= 1
	var mismatch *StoredValueMismatchError
	err := VerifyMembership(state, membershipClient(), proof, [][]byte{membershipPath}, other[:])
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, word[:], mismatch.Actual)
	assert.Equal(t, other[:], mismatch.Expected)

	// Values are compared as full 32 byte words.
	short := membershipValue.Bytes()[1:]
	require.ErrorAs(t, VerifyMembership(state, membershipClient(), proof, [][]byte{membershipPath}, short), &mismatch)

	// A proven value that is not in the trie.
	forged := encodeStorageProof(t, membershipKey, uint256.NewInt(5), membershipProof)
	five := uint256.NewInt(5).Bytes32()
	require.ErrorAs(t, VerifyMembership(state, membershipClient(), forged, [][]byte{membershipPath}, five[:]), &proofErr)

	// A different storage root.
	require.ErrorAs(t, VerifyMembership(&ConsensusState{StorageRoot: absenceRoot}, membershipClient(), proof, [][]byte{membershipPath}, word[:]), &proofErr)
}

func TestVerifyNonMembership(t *testing.T) {
	var (
		state = &ConsensusState{StorageRoot: absenceRoot}
		proof = encodeStorageProof(t, absenceKey, new(uint256.Int), absenceProof)
		zero  [32]byte
	)
	require.NoError(t, VerifyMembership(state, membershipClient(), proof, [][]byte{absencePath}, nil))

	var proofErr *StorageProofError
	require.ErrorAs(t, VerifyMembership(state, membershipClient(), proof, [][]byte{absencePath}, zero[:]), &proofErr)
}

func TestVerifyMembershipErrors(t *testing.T) {
	var (
		state = &ConsensusState{StorageRoot: membershipRoot}
		proof = encodeStorageProof(t, membershipKey, membershipValue, membershipProof)
		word  = membershipValue.Bytes32()
	)
	require.ErrorIs(t, VerifyMembership(state, membershipClient(), proof, nil, word[:]), ErrEmptyPath)
	require.ErrorIs(t, VerifyMembership(state, membershipClient(), []byte("{not json"), [][]byte{membershipPath}, word[:]), ErrStorageProofDecode)
	require.ErrorIs(t, VerifyMembership(state, membershipClient(), []byte(`{"key":"0x01"}`), [][]byte{membershipPath}, word[:]), ErrStorageProofDecode)

	// The key must be derived from the first path element.
	var keyErr *InvalidCommitmentKeyError
	err := VerifyMembership(state, membershipClient(), proof, [][]byte{absencePath, membershipPath}, word[:])
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, absenceKey, keyErr.Expected)
	assert.Equal(t, membershipKey, keyErr.Found)

	// And from the configured commitment slot.
	client := membershipClient()
	client.IbcCommitmentSlot = uint256.NewInt(2)
	require.ErrorAs(t, VerifyMembership(state, client, proof, [][]byte{membershipPath}, word[:]), &keyErr)
}
