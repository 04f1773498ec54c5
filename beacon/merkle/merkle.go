// Copyright 2022 The go-ethereum Authors
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

// Package merkle implements proof verifications in binary merkle trees.
package merkle

import (
	"crypto/sha256"
	"fmt"
	"math/bits"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MaxDepth is the deepest subtree for which zero hashes are cached.
const MaxDepth = 64

// Value represents either a 32 byte leaf value or hash node in a binary merkle tree/partial proof.
type Value [32]byte

// Values represent a series of merkle tree leaves/nodes.
type Values []Value

var valueT = reflect.TypeOf(Value{})

// MarshalText encodes the value as 0x-prefixed hex.
func (m Value) MarshalText() ([]byte, error) {
	return hexutil.Bytes(m[:]).MarshalText()
}

// UnmarshalJSON parses a merkle value in hex syntax.
func (m *Value) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(valueT, input, m[:])
}

// Hash returns the value as a common.Hash.
func (m Value) Hash() common.Hash { return common.Hash(m) }

func (m Value) String() string { return hexutil.Encode(m[:]) }

// BranchError is returned when a merkle branch does not lead to the expected
// root. It carries every input of the check together with the root that was
// actually computed.
type BranchError struct {
	Leaf     Value
	Branch   Values
	Depth    int
	Index    uint64
	Root     Value
	Computed Value
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("invalid merkle branch (leaf: %v, branch: %v, depth: %d, index: %d, root: %v, found: %v)",
		e.Leaf, e.Branch, e.Depth, e.Index, e.Root, e.Computed)
}

// HashPair returns sha256(left || right).
func HashPair(left, right Value) (out Value) {
	hasher := sha256.New()
	hasher.Write(left[:])
	hasher.Write(right[:])
	hasher.Sum(out[:0])
	return out
}

// ComputeRoot folds leaf with the first depth items of branch. Bit i of
// index selects the order at level i: when set, the sibling is hashed on
// the left.
func ComputeRoot(leaf Value, branch Values, depth int, index uint64) Value {
	var (
		hasher = sha256.New()
		value  = leaf
	)
	for i := 0; i < depth && i < len(branch); i++ {
		hasher.Reset()
		if (index>>uint(i))&1 == 1 {
			hasher.Write(branch[i][:])
			hasher.Write(value[:])
		} else {
			hasher.Write(value[:])
			hasher.Write(branch[i][:])
		}
		hasher.Sum(value[:0])
	}
	return value
}

// VerifyBranch checks that leaf is included under root at the given index of
// a subtree of the given depth.
func VerifyBranch(leaf Value, branch Values, depth int, index uint64, root Value) error {
	computed := ComputeRoot(leaf, branch, depth, index)
	if computed != root {
		return &BranchError{
			Leaf:     leaf,
			Branch:   append(Values(nil), branch...),
			Depth:    depth,
			Index:    index,
			Root:     root,
			Computed: computed,
		}
	}
	return nil
}

// VerifyProof verifies a Merkle proof branch for a single value in a
// binary Merkle tree (index is a generalized tree index).
func VerifyProof(root common.Hash, index uint64, branch Values, value Value) error {
	depth := GeneralizedIndexDepth(index)
	if depth != len(branch) {
		return fmt.Errorf("branch length mismatch: have %d, want %d", len(branch), depth)
	}
	return VerifyBranch(value, branch, depth, SubtreeIndex(index), Value(root))
}

// GeneralizedIndexDepth returns the depth of the node at the given
// generalized index (floor(log2(index))).
func GeneralizedIndexDepth(index uint64) int {
	if index == 0 {
		return 0
	}
	return bits.Len64(index) - 1
}

// SubtreeIndex returns the position of a generalized index inside its own
// layer of the tree (index % 2^depth).
func SubtreeIndex(index uint64) uint64 {
	return index % (uint64(1) << GeneralizedIndexDepth(index))
}

var zeroHashes = sync.OnceValue(func() [MaxDepth + 1]Value {
	var hashes [MaxDepth + 1]Value
	for i := 1; i <= MaxDepth; i++ {
		hashes[i] = HashPair(hashes[i-1], hashes[i-1])
	}
	return hashes
})

// ZeroHash returns the root of an all-zero subtree of the given depth.
func ZeroHash(depth int) Value {
	if depth < 0 || depth > MaxDepth {
		panic(fmt.Sprintf("zero hash depth %d out of range", depth))
	}
	return zeroHashes()[depth]
}

// Merkleize computes the root of a tree whose leaves are padded with zero
// values up to the next power of two of limit. It panics if there are more
// leaves than the limit allows.
func Merkleize(leaves Values, limit int) Value {
	if len(leaves) > limit {
		panic(fmt.Sprintf("merkleize: %d leaves exceed limit %d", len(leaves), limit))
	}
	depth := 0
	for (1 << depth) < limit {
		depth++
	}
	if len(leaves) == 0 {
		return ZeroHash(depth)
	}
	layer := append(Values(nil), leaves...)
	for d := 0; d < depth; d++ {
		if len(layer)%2 == 1 {
			layer = append(layer, ZeroHash(d))
		}
		next := make(Values, len(layer)/2)
		for i := range next {
			next[i] = HashPair(layer[2*i], layer[2*i+1])
		}
		layer = next
	}
	return layer[0]
}
