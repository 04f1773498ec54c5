// Copyright 2023 The go-ethereum Authors
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

package types

import (
	"math/bits"
	"reflect"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/ethereum-light-client/beacon/merkle"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
)

// BLSPubkey is a compressed BLS12-381 public key.
type BLSPubkey [params.BLSPubkeySize]byte

// BLSSignature is a compressed BLS12-381 signature.
type BLSSignature [params.BLSSignatureSize]byte

var (
	pubkeyT    = reflect.TypeOf(BLSPubkey{})
	signatureT = reflect.TypeOf(BLSSignature{})
)

func (p BLSPubkey) MarshalText() ([]byte, error) {
	return hexutil.Bytes(p[:]).MarshalText()
}

func (p *BLSPubkey) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(pubkeyT, input, p[:])
}

func (p BLSPubkey) String() string { return hexutil.Encode(p[:]) }

// hashTreeRoot returns the root of the pubkey as an SSZ byte vector of two
// chunks.
func (p *BLSPubkey) hashTreeRoot() merkle.Value {
	var left, right merkle.Value
	copy(left[:], p[:32])
	copy(right[:], p[32:])
	return merkle.HashPair(left, right)
}

func (s BLSSignature) MarshalText() ([]byte, error) {
	return hexutil.Bytes(s[:]).MarshalText()
}

func (s *BLSSignature) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(signatureT, input, s[:])
}

func (s BLSSignature) String() string { return hexutil.Encode(s[:]) }

// SyncCommittee is the ordered list of sync committee member keys together
// with their aggregate. The position of a key is its index in the
// participation bitfield.
type SyncCommittee struct {
	Pubkeys         []BLSPubkey `json:"pubkeys"`
	AggregatePubkey BLSPubkey   `json:"aggregate_pubkey"`
}

// Root calculates the SSZ hash tree root of the committee.
func (s *SyncCommittee) Root() common.Hash {
	leaves := make(merkle.Values, len(s.Pubkeys))
	for i := range s.Pubkeys {
		leaves[i] = s.Pubkeys[i].hashTreeRoot()
	}
	keysRoot := merkle.Merkleize(leaves, len(leaves))
	return common.Hash(merkle.HashPair(keysRoot, s.AggregatePubkey.hashTreeRoot()))
}

// Equal reports whether two committees hold the same keys in the same order.
func (s *SyncCommittee) Equal(other *SyncCommittee) bool {
	return s.AggregatePubkey == other.AggregatePubkey && slices.Equal(s.Pubkeys, other.Pubkeys)
}

// SyncAggregate represents an aggregated BLS signature with the participation
// bitfield of the committee members who signed it. Bits are ordered most
// significant first inside each byte.
type SyncAggregate struct {
	SyncCommitteeBits      hexutil.Bytes `json:"sync_committee_bits"`
	SyncCommitteeSignature BLSSignature  `json:"sync_committee_signature"`
}

// NumParticipants returns the number of set bits in the participation
// bitfield.
func (s *SyncAggregate) NumParticipants() uint64 {
	var count int
	for _, v := range s.SyncCommitteeBits {
		count += bits.OnesCount8(v)
	}
	return uint64(count)
}

// CommitteeSize returns the committee size implied by the bitfield length.
func (s *SyncAggregate) CommitteeSize() uint64 {
	return uint64(len(s.SyncCommitteeBits)) * 8
}

// ValidateSignatureSupermajority reports whether at least two thirds of the
// committee participated.
func (s *SyncAggregate) ValidateSignatureSupermajority() bool {
	return s.NumParticipants()*3 >= s.CommitteeSize()*2
}

// HasSufficientParticipants reports whether at least min members signed.
func (s *SyncAggregate) HasSufficientParticipants(min uint64) bool {
	return s.NumParticipants() >= min
}

// Participants returns the keys of the participating members, pairing the
// bitfield positionally with the committee key list.
func (s *SyncAggregate) Participants(pubkeys []BLSPubkey) []BLSPubkey {
	keys := make([]BLSPubkey, 0, len(pubkeys))
	for i, key := range pubkeys {
		if i/8 >= len(s.SyncCommitteeBits) {
			break
		}
		if s.SyncCommitteeBits[i/8]&(0x80>>uint(i%8)) != 0 {
			keys = append(keys, key)
		}
	}
	return keys
}
