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

package bls

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

// Querier answers aggregate signature queries on behalf of a sandboxed
// light client, for example through a host chain's custom query.
type Querier interface {
	AggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) (bool, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) (bool, error)

func (f QuerierFunc) AggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) (bool, error) {
	return f(pubkeys, msg, signature)
}

// QueryError is returned when the host query itself fails.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("fast aggregate verify error: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// InvalidSignatureError is returned when the host reports the signature as
// invalid.
type InvalidSignatureError struct {
	Pubkeys   []types.BLSPubkey
	Msg       common.Hash
	Signature types.BLSSignature
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("signature cannot be verified (public keys: %d, msg: %x, signature: %v)", len(e.Pubkeys), e.Msg, e.Signature)
}

// Delegated forwards verification to a Querier.
type Delegated struct {
	Querier Querier
}

func (d Delegated) FastAggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) error {
	valid, err := d.Querier.AggregateVerify(pubkeys, msg, signature)
	if err != nil {
		return &QueryError{Err: err}
	}
	if !valid {
		return &InvalidSignatureError{Pubkeys: pubkeys, Msg: msg, Signature: signature}
	}
	return nil
}
