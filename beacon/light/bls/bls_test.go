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
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	blst "github.com/supranational/blst/bindings/go"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

type testSigner struct {
	keys    []*blst.SecretKey
	pubkeys []types.BLSPubkey
}

func newTestSigner(n int) *testSigner {
	s := &testSigner{}
	for i := 0; i < n; i++ {
		ikm := make([]byte, 32)
		ikm[0], ikm[31] = byte(i), 0x5a
		sk := blst.KeyGen(ikm)
		var pk types.BLSPubkey
		copy(pk[:], new(blst.P1Affine).From(sk).Compress())
		s.keys = append(s.keys, sk)
		s.pubkeys = append(s.pubkeys, pk)
	}
	return s
}

func (s *testSigner) sign(msg common.Hash, signers ...int) types.BLSSignature {
	sigs := make([]*blst.P2Affine, len(signers))
	for i, idx := range signers {
		sigs[i] = new(blst.P2Affine).Sign(s.keys[idx], msg[:], DST)
	}
	agg := new(blst.P2Aggregate)
	if !agg.Aggregate(sigs, false) {
		panic("signature aggregation failed")
	}
	var sig types.BLSSignature
	copy(sig[:], agg.ToAffine().Compress())
	return sig
}

func TestFastAggregateVerify(t *testing.T) {
	var (
		signer = newTestSigner(4)
		msg    = common.HexToHash("0x5aef0f4b2d6cbc5ea2b5dd7f4b0c39f1d3cb6f9ed1a6b14bfa4c2b1e2d4b6b9a")
		sig    = signer.sign(msg, 0, 2, 3)
		keys   = []types.BLSPubkey{signer.pubkeys[0], signer.pubkeys[2], signer.pubkeys[3]}
	)
	for name, v := range map[string]interface {
		FastAggregateVerify([]types.BLSPubkey, common.Hash, types.BLSSignature) error
	}{
		"native": Native{},
		"blst":   Blst{},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, v.FastAggregateVerify(keys, msg, sig))

			err := v.FastAggregateVerify(signer.pubkeys[:3], msg, sig)
			assert.ErrorIs(t, err, ErrVerifyFailed)

			err = v.FastAggregateVerify(keys, common.Hash{1}, sig)
			assert.ErrorIs(t, err, ErrVerifyFailed)

			assert.ErrorIs(t, v.FastAggregateVerify(nil, msg, sig), ErrNoPubkeys)

			bad := sig
			bad[0] ^= 0xff
			assert.Error(t, v.FastAggregateVerify(keys, msg, bad))

			badKeys := append([]types.BLSPubkey{}, keys...)
			badKeys[1] = types.BLSPubkey{0x01}
			assert.ErrorIs(t, v.FastAggregateVerify(badKeys, msg, sig), ErrInvalidPubkey)
		})
	}
}

func TestAggregatePubkeys(t *testing.T) {
	signer := newTestSigner(3)
	agg, err := AggregatePubkeys(signer.pubkeys)
	require.NoError(t, err)

	// A signature by every member verifies against the aggregate key alone.
	msg := common.Hash{0xaa}
	sig := signer.sign(msg, 0, 1, 2)
	require.NoError(t, Blst{}.FastAggregateVerify([]types.BLSPubkey{agg}, msg, sig))

	_, err = AggregatePubkeys(nil)
	assert.ErrorIs(t, err, ErrNoPubkeys)
}

func TestDelegated(t *testing.T) {
	var (
		signer = newTestSigner(2)
		msg    = common.Hash{0x01}
		sig    = signer.sign(msg, 0, 1)
		calls  int
	)
	host := QuerierFunc(func(pubkeys []types.BLSPubkey, m common.Hash, s types.BLSSignature) (bool, error) {
		calls++
		return Blst{}.FastAggregateVerify(pubkeys, m, s) == nil, nil
	})
	v := Delegated{Querier: host}
	require.NoError(t, v.FastAggregateVerify(signer.pubkeys, msg, sig))

	var invalid *InvalidSignatureError
	err := v.FastAggregateVerify(signer.pubkeys[:1], msg, sig)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, msg, invalid.Msg)
	assert.Len(t, invalid.Pubkeys, 1)
	assert.Equal(t, 2, calls)

	queryErr := errors.New("query failed")
	v = Delegated{Querier: QuerierFunc(func([]types.BLSPubkey, common.Hash, types.BLSSignature) (bool, error) {
		return false, queryErr
	})}
	err = v.FastAggregateVerify(signer.pubkeys, msg, sig)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.ErrorIs(t, err, queryErr)
}
