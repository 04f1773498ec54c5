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
	"encoding/binary"
	"errors"
)

// The fields below define the low level database schema prefixing.
var (
	// clientStatePrefix + id length (uint8) + id -> client state JSON
	clientStatePrefix = []byte("ethlc-cl-")

	// consensusStatePrefix + id length (uint8) + id + slot (uint64 big endian) -> snappy(consensus state JSON)
	consensusStatePrefix = []byte("ethlc-cs-")
)

// maxClientIDLength is the longest client identifier the schema can encode.
const maxClientIDLength = 255

var errInvalidClientID = errors.New("client id must be 1 to 255 bytes long")

func validateClientID(id string) error {
	if len(id) == 0 || len(id) > maxClientIDLength {
		return errInvalidClientID
	}
	return nil
}

// encodeSlot encodes a slot as big endian uint64, so that keys of one client
// iterate in slot order.
func encodeSlot(slot uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, slot)
	return enc
}

// clientKey appends the length prefixed client id to prefix. The length
// prefix keeps the key space of an id separate from ids it is a prefix of.
func clientKey(prefix []byte, id string) []byte {
	key := make([]byte, 0, len(prefix)+1+len(id)+8)
	key = append(key, prefix...)
	key = append(key, byte(len(id)))
	return append(key, id...)
}

// clientStateKey = clientStatePrefix + id length + id
func clientStateKey(id string) []byte {
	return clientKey(clientStatePrefix, id)
}

// consensusStateKeyPrefix = consensusStatePrefix + id length + id
func consensusStateKeyPrefix(id string) []byte {
	return clientKey(consensusStatePrefix, id)
}

// consensusStateKey = consensusStatePrefix + id length + id + slot (uint64 big endian)
func consensusStateKey(id string, slot uint64) []byte {
	return append(consensusStateKeyPrefix(id), encodeSlot(slot)...)
}
