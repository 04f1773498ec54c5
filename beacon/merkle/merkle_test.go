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

package merkle

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomValue(rng *rand.Rand) (v Value) {
	rng.Read(v[:])
	return v
}

func randomBranch(rng *rand.Rand, depth int) Values {
	branch := make(Values, depth)
	for i := range branch {
		branch[i] = randomValue(rng)
	}
	return branch
}

func TestBranchRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for depth := 1; depth <= 8; depth++ {
		for index := uint64(0); index < uint64(1)<<depth; index++ {
			leaf := randomValue(rng)
			branch := randomBranch(rng, depth)
			root := ComputeRoot(leaf, branch, depth, index)
			if err := VerifyBranch(leaf, branch, depth, index, root); err != nil {
				t.Fatalf("depth %d index %d: valid branch rejected: %v", depth, index, err)
			}
		}
	}
}

func TestBranchTamper(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const depth = 6
	leaf := randomValue(rng)
	branch := randomBranch(rng, depth)
	root := ComputeRoot(leaf, branch, depth, 41)

	for i := 0; i < depth; i++ {
		for bit := 0; bit < 256; bit += 37 {
			tampered := append(Values(nil), branch...)
			tampered[i][bit/8] ^= 1 << (bit % 8)
			require.Error(t, VerifyBranch(leaf, tampered, depth, 41, root), "sibling %d bit %d", i, bit)
		}
	}
	for bit := 0; bit < 256; bit++ {
		tampered := leaf
		tampered[bit/8] ^= 1 << (bit % 8)
		require.Error(t, VerifyBranch(tampered, branch, depth, 41, root), "leaf bit %d", bit)
	}
	// A different index puts the leaf on another path.
	require.Error(t, VerifyBranch(leaf, branch, depth, 40, root))
}

func TestBranchErrorDiagnostics(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	leaf := randomValue(rng)
	branch := randomBranch(rng, 4)
	root := randomValue(rng)

	err := VerifyBranch(leaf, branch, 4, 9, root)
	var berr *BranchError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, leaf, berr.Leaf)
	assert.Equal(t, branch, berr.Branch)
	assert.Equal(t, 4, berr.Depth)
	assert.Equal(t, uint64(9), berr.Index)
	assert.Equal(t, root, berr.Root)
	assert.Equal(t, ComputeRoot(leaf, branch, 4, 9), berr.Computed)
}

func TestBranchLeftRightOrder(t *testing.T) {
	var leaf, sibling Value
	leaf[0], sibling[0] = 1, 2

	left := Value(sha256.Sum256(append(sibling[:], leaf[:]...)))
	right := Value(sha256.Sum256(append(leaf[:], sibling[:]...)))
	assert.Equal(t, left, ComputeRoot(leaf, Values{sibling}, 1, 1))
	assert.Equal(t, right, ComputeRoot(leaf, Values{sibling}, 1, 0))
}

func TestVerifyProofGeneralizedIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	leaf := randomValue(rng)
	branch := randomBranch(rng, 6)
	root := ComputeRoot(leaf, branch, 6, SubtreeIndex(105))

	require.NoError(t, VerifyProof(root.Hash(), 105, branch, leaf))
	require.Error(t, VerifyProof(root.Hash(), 105, branch[:5], leaf))
	require.Error(t, VerifyProof(root.Hash(), 104, branch, leaf))
}

func TestSubtreeIndex(t *testing.T) {
	tests := []struct {
		gindex uint64
		depth  int
		index  uint64
	}{
		{1, 0, 0},
		{25, 4, 9},
		{54, 5, 22},
		{55, 5, 23},
		{105, 6, 41},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.depth, GeneralizedIndexDepth(tt.gindex), "depth of %d", tt.gindex)
		assert.Equal(t, tt.index, SubtreeIndex(tt.gindex), "subtree index of %d", tt.gindex)
	}
}

func TestZeroHashes(t *testing.T) {
	assert.Equal(t, Value{}, ZeroHash(0))
	for d := 1; d <= 10; d++ {
		assert.Equal(t, HashPair(ZeroHash(d-1), ZeroHash(d-1)), ZeroHash(d))
	}
	assert.Panics(t, func() { ZeroHash(MaxDepth + 1) })
}

func TestMerkleize(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a, b, c := randomValue(rng), randomValue(rng), randomValue(rng)

	assert.Equal(t, a, Merkleize(Values{a}, 1))
	assert.Equal(t, HashPair(a, b), Merkleize(Values{a, b}, 2))
	assert.Equal(t, HashPair(HashPair(a, b), HashPair(c, Value{})), Merkleize(Values{a, b, c}, 3))
	assert.Equal(t, HashPair(HashPair(a, Value{}), ZeroHash(1)), Merkleize(Values{a}, 4))
	assert.Equal(t, ZeroHash(3), Merkleize(nil, 8))
	assert.Panics(t, func() { Merkleize(Values{a, b}, 1) })
}

func TestValueJSON(t *testing.T) {
	var v Value
	v[0], v[31] = 0xab, 0xcd
	enc, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"0xab000000000000000000000000000000000000000000000000000000000000cd"`, string(enc))

	var dec Value
	require.NoError(t, json.Unmarshal(enc, &dec))
	assert.Equal(t, v, dec)
	assert.Error(t, json.Unmarshal([]byte(`"0xabcd"`), &dec))
}
