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

// Package bls contains the sync committee signature verifiers used by the
// light client.
package bls

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	blsu "github.com/protolambda/bls12-381-util"
	blst "github.com/supranational/blst/bindings/go"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

// DST is the domain separation tag of consensus layer signatures.
var DST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

var (
	ErrNoPubkeys        = errors.New("no public keys")
	ErrInvalidPubkey    = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature encoding")
	ErrVerifyFailed     = errors.New("signature verification failed")
)

// Native verifies signatures with the pure Go BLS12-381 implementation.
type Native struct{}

func (Native) FastAggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) error {
	if len(pubkeys) == 0 {
		return ErrNoPubkeys
	}
	var sig blsu.Signature
	if err := sig.Deserialize((*[96]byte)(&signature)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	keys := make([]*blsu.Pubkey, len(pubkeys))
	for i := range pubkeys {
		keys[i] = new(blsu.Pubkey)
		if err := keys[i].Deserialize((*[48]byte)(&pubkeys[i])); err != nil {
			return fmt.Errorf("%w %d: %v", ErrInvalidPubkey, i, err)
		}
	}
	if !blsu.FastAggregateVerify(keys, msg[:], &sig) {
		return ErrVerifyFailed
	}
	return nil
}

// Blst verifies signatures with the blst library.
type Blst struct{}

func (Blst) FastAggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) error {
	if len(pubkeys) == 0 {
		return ErrNoPubkeys
	}
	sig := new(blst.P2Affine).Uncompress(signature[:])
	if sig == nil {
		return ErrInvalidSignature
	}
	keys, err := uncompressPubkeys(pubkeys)
	if err != nil {
		return err
	}
	if !sig.FastAggregateVerify(true, keys, msg[:], DST) {
		return ErrVerifyFailed
	}
	return nil
}

func uncompressPubkeys(pubkeys []types.BLSPubkey) ([]*blst.P1Affine, error) {
	keys := make([]*blst.P1Affine, len(pubkeys))
	for i := range pubkeys {
		if keys[i] = new(blst.P1Affine).Uncompress(pubkeys[i][:]); keys[i] == nil {
			return nil, fmt.Errorf("%w %d", ErrInvalidPubkey, i)
		}
	}
	return keys, nil
}

// AggregatePubkeys returns the aggregate of the given public keys, as stored
// in the aggregate_pubkey field of a sync committee.
func AggregatePubkeys(pubkeys []types.BLSPubkey) (types.BLSPubkey, error) {
	if len(pubkeys) == 0 {
		return types.BLSPubkey{}, ErrNoPubkeys
	}
	keys, err := uncompressPubkeys(pubkeys)
	if err != nil {
		return types.BLSPubkey{}, err
	}
	agg := new(blst.P1Aggregate)
	if !agg.Aggregate(keys, true) {
		return types.BLSPubkey{}, ErrInvalidPubkey
	}
	var out types.BLSPubkey
	copy(out[:], agg.ToAffine().Compress())
	return out, nil
}
