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

package triedb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TrieNodeError is returned when the proof does not resolve the requested key,
// for example because a node is missing or cannot be decoded.
type TrieNodeError struct {
	Err error
}

func (e *TrieNodeError) Error() string {
	return fmt.Sprintf("failed to get trie node: %v", e.Err)
}

func (e *TrieNodeError) Unwrap() error { return e.Err }

// RLPDecodeError is returned when a proven account is not a valid RLP
// encoded state account.
type RLPDecodeError struct {
	Err error
}

func (e *RLPDecodeError) Error() string {
	return fmt.Sprintf("rlp decode error: %v", e.Err)
}

func (e *RLPDecodeError) Unwrap() error { return e.Err }

// ValueMismatchError is returned when the proven value differs from the
// expected one. A nil Expected means the key was expected to be absent.
type ValueMismatchError struct {
	Expected []byte
	Actual   []byte
}

func (e *ValueMismatchError) Error() string {
	return fmt.Sprintf("value mismatch, expected %s but found %s", hexutil.Encode(e.Expected), hexutil.Encode(e.Actual))
}

// ValueMissingError is returned when the proof shows that the key is not
// present in the trie.
type ValueMissingError struct {
	Value []byte
}

func (e *ValueMissingError) Error() string {
	return fmt.Sprintf("value is missing: %s", hexutil.Encode(e.Value))
}
