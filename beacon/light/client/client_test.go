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

package client

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/ethereum-light-client/beacon/light"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/store"
	"github.com/sunyihoo/ethereum-light-client/beacon/merkle"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

const genesisTime = 1_700_000_000

// staticVerifier accepts every signature if err is nil.
type staticVerifier struct{ err error }

func (v staticVerifier) FastAggregateVerify([]types.BLSPubkey, common.Hash, types.BLSSignature) error {
	return v.err
}

var errBadSignature = errors.New("bad signature")

func committee(period uint64) types.SyncCommittee {
	c := types.SyncCommittee{Pubkeys: make([]types.BLSPubkey, 16)}
	for i := range c.Pubkeys {
		c.Pubkeys[i][0], c.Pubkeys[i][1] = byte(period), byte(i)
	}
	c.AggregatePubkey[0] = byte(period)
	return c
}

// stateTree computes the root and branches of a beacon state holding only
// the finalized root and the next sync committee root.
type stateTree map[uint64]merkle.Value

func (t stateTree) node(index uint64) merkle.Value {
	if v, ok := t[index]; ok {
		return v
	}
	if index >= 1<<params.FinalityBranchDepth {
		return merkle.Value{}
	}
	return merkle.HashPair(t.node(2*index), t.node(2*index+1))
}

func (t stateTree) branch(index uint64, out []merkle.Value) {
	for i := 0; index > 1; index, i = index>>1, i+1 {
		out[i] = t.node(index ^ 1)
	}
}

func lightHeader(slot uint64, execRoot common.Hash) types.LightClientHeader {
	h := types.LightClientHeader{
		Beacon: types.BeaconBlockHeader{Slot: slot, ParentRoot: common.Hash{byte(slot)}},
		Execution: types.ExecutionPayloadHeader{
			StateRoot:     execRoot,
			BlockNumber:   slot,
			Timestamp:     genesisTime + slot*6,
			BaseFeePerGas: uint256.NewInt(1),
		},
	}
	h.Beacon.BodyRoot = common.Hash(merkle.ComputeRoot(merkle.Value(h.Execution.PayloadRoot()), h.ExecutionBranch[:],
		params.ExecutionBranchDepth, merkle.SubtreeIndex(params.ExecutionPayloadIndex)))
	return h
}

type testEnv struct {
	db          *store.Store
	client      *Client
	clientState *light.ClientState
	execRoot    common.Hash
	storageRoot common.Hash
	proof       []hexutil.Bytes
}

func newTestEnv(t *testing.T, verifier light.BLSVerifier) *testEnv {
	t.Helper()
	env := &testEnv{
		db:          store.New(memorydb.New(), 1),
		storageRoot: common.Hash{0x5e},
	}
	env.clientState = &light.ClientState{
		ChainID:                      1,
		MinSyncCommitteeParticipants: 1,
		GenesisTime:                  genesisTime,
		ForkParameters:               params.MinimalSpec.Forks,
		SecondsPerSlot:               6,
		SlotsPerEpoch:                8,
		EpochsPerSyncCommitteePeriod: 8,
		LatestSlot:                   70,
		IbcCommitmentSlot:            uint256.NewInt(1),
		IbcContractAddress:           common.Address{0xc0},
	}

	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	account, err := rlp.EncodeToBytes(&ethtypes.StateAccount{Balance: new(uint256.Int), Root: env.storageRoot, CodeHash: ethtypes.EmptyCodeHash.Bytes()})
	require.NoError(t, err)
	key := crypto.Keccak256(env.clientState.IbcContractAddress.Bytes())
	tr.MustUpdate(key, account)
	tr.MustUpdate(crypto.Keccak256([]byte{0x01}), []byte{0x01})
	env.execRoot = tr.Hash()
	proofDb := memorydb.New()
	require.NoError(t, tr.Prove(key, proofDb))
	it := proofDb.NewIterator(nil, nil)
	for it.Next() {
		env.proof = append(env.proof, common.CopyBytes(it.Value()))
	}
	it.Release()

	env.client = New("eth-0", env.db, verifier)
	require.NoError(t, env.client.Instantiate(env.clientState, &light.ConsensusState{
		Slot:                 70,
		StateRoot:            common.Hash{0x70},
		StorageRoot:          env.storageRoot,
		Timestamp:            genesisTime + 70*6,
		CurrentSyncCommittee: committee(1).AggregatePubkey,
	}))
	return env
}

func (env *testEnv) update(attested, finalized, signature uint64, next *types.SyncCommittee, execRoot common.Hash) types.LightClientUpdate {
	finalizedHeader := lightHeader(finalized, common.Hash{0xf0})
	tree := stateTree{params.FinalizedRootIndex: merkle.Value(finalizedHeader.Beacon.Hash())}
	if next != nil {
		tree[params.NextSyncCommitteeIndex] = merkle.Value(next.Root())
	}
	attestedHeader := lightHeader(attested, execRoot)
	attestedHeader.Beacon.StateRoot = common.Hash(tree.node(1))

	update := types.LightClientUpdate{
		AttestedHeader:    attestedHeader,
		NextSyncCommittee: next,
		FinalizedHeader:   finalizedHeader,
		SignatureSlot:     signature,
		SyncAggregate:     types.SyncAggregate{SyncCommitteeBits: hexutil.Bytes{0xff, 0xff}},
	}
	tree.branch(params.FinalizedRootIndex, update.FinalityBranch[:])
	if next != nil {
		update.NextSyncCommitteeBranch = new(types.NextSyncCommitteeBranch)
		tree.branch(params.NextSyncCommitteeIndex, update.NextSyncCommitteeBranch[:])
	}
	return update
}

func (env *testEnv) header(trustedSlot uint64, active light.ActiveSyncCommittee, update types.LightClientUpdate) *light.Header {
	return &light.Header{
		TrustedSyncCommittee: light.TrustedSyncCommittee{TrustedSlot: trustedSlot, SyncCommittee: active},
		ConsensusUpdate:      update,
		AccountUpdate:        light.AccountUpdate{AccountProof: light.AccountProof{Proof: env.proof, StorageRoot: env.storageRoot}},
	}
}

func now(slot uint64) uint64 {
	return genesisTime + (slot+1)*6
}

func TestInstantiate(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})

	status, err := env.client.Status()
	require.NoError(t, err)
	assert.Equal(t, Active, status)

	height, err := env.client.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), height)

	ts, err := env.client.TimestampAtHeight(70)
	require.NoError(t, err)
	assert.Equal(t, uint64(genesisTime+70*6)*uint64(time.Second), ts)

	_, err = env.client.TimestampAtHeight(71)
	require.ErrorIs(t, err, store.ErrConsensusStateNotFound)

	err = env.client.Instantiate(env.clientState, &light.ConsensusState{Slot: 70})
	require.ErrorIs(t, err, ErrClientExists)

	_, err = New("unknown", env.db, staticVerifier{}).Status()
	require.ErrorIs(t, err, store.ErrClientNotFound)
}

func TestDecodeClientMessage(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})
	next := committee(2)
	header := env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(80, 72, 81, &next, env.execRoot))

	enc, err := json.Marshal(header)
	require.NoError(t, err)
	decodedHeader, misbehaviour, err := DecodeClientMessage(enc)
	require.NoError(t, err)
	assert.Nil(t, misbehaviour)
	assert.Equal(t, header.TrustedSyncCommittee, decodedHeader.TrustedSyncCommittee)

	enc, err = json.Marshal(&light.Misbehaviour{
		TrustedSlot:   70,
		SyncCommittee: light.CurrentActiveSyncCommittee(committee(1)),
		Update1:       header.ConsensusUpdate,
		Update2:       header.ConsensusUpdate,
	})
	require.NoError(t, err)
	decodedHeader, misbehaviour, err = DecodeClientMessage(enc)
	require.NoError(t, err)
	assert.Nil(t, decodedHeader)
	assert.Equal(t, uint64(70), misbehaviour.TrustedSlot)

	for _, msg := range []string{``, `[]`, `{}`, `{"trusted_slot":1}`, `{"consensus_update":{}}`, `{"update_1":1}`} {
		_, _, err := DecodeClientMessage([]byte(msg))
		require.ErrorIs(t, err, ErrInvalidClientMessage, "message %q", msg)
	}
}

func TestUpdateState(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})
	next := committee(2)
	header := env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(80, 72, 81, &next, env.execRoot))

	enc, err := json.Marshal(header)
	require.NoError(t, err)
	require.NoError(t, env.client.VerifyClientMessage(enc, now(81)))

	heights, err := env.client.UpdateState(header, now(81))
	require.NoError(t, err)
	assert.Equal(t, []uint64{80}, heights)

	latest, err := env.client.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(80), latest)
	consensusState, err := env.client.ConsensusState(80)
	require.NoError(t, err)
	assert.Equal(t, env.execRoot, consensusState.StateRoot)
	assert.Equal(t, &next.AggregatePubkey, consensusState.NextSyncCommittee)

	// The next period is signed by the committee learned above.
	third := committee(3)
	header = env.header(80, light.NextActiveSyncCommittee(next), env.update(130, 121, 131, &third, env.execRoot))
	heights, err = env.client.UpdateState(header, now(131))
	require.NoError(t, err)
	assert.Equal(t, []uint64{130}, heights)
	consensusState, err = env.client.ConsensusState(130)
	require.NoError(t, err)
	assert.Equal(t, next.AggregatePubkey, consensusState.CurrentSyncCommittee)
	assert.Equal(t, &third.AggregatePubkey, consensusState.NextSyncCommittee)

	slots, err := env.db.ConsensusSlots(env.client.ID())
	require.NoError(t, err)
	assert.Equal(t, []uint64{70, 80, 130}, slots)
}

func TestUpdateStateCommitteeOnly(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})
	next := committee(2)
	header := env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(70, 66, 75, &next, env.execRoot))

	heights, err := env.client.UpdateState(header, now(75))
	require.NoError(t, err)
	assert.Equal(t, []uint64{70}, heights)

	consensusState, err := env.client.ConsensusState(70)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{0x70}, consensusState.StateRoot)
	assert.Equal(t, &next.AggregatePubkey, consensusState.NextSyncCommittee)

	// Applying the same update again rewrites an identical state.
	heights, err = env.client.UpdateState(header, now(75))
	require.NoError(t, err)
	assert.Equal(t, []uint64{70}, heights)

	// A different next committee for the same slot is rejected.
	other := committee(5)
	header = env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(70, 66, 75, &other, env.execRoot))
	_, err = env.client.UpdateState(header, now(75))
	require.ErrorIs(t, err, store.ErrConsensusStateExists)

	slots, err := env.db.ConsensusSlots(env.client.ID())
	require.NoError(t, err)
	assert.Equal(t, []uint64{70}, slots)
}

func TestUpdateStateRejected(t *testing.T) {
	env := newTestEnv(t, staticVerifier{err: errBadSignature})
	header := env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(80, 72, 81, nil, env.execRoot))

	_, err := env.client.UpdateState(header, now(81))
	var sigErr *light.SignatureError
	require.ErrorAs(t, err, &sigErr)
	require.ErrorIs(t, err, errBadSignature)

	enc, err := json.Marshal(header)
	require.NoError(t, err)
	require.ErrorIs(t, env.client.VerifyClientMessage(enc, now(81)), errBadSignature)

	// Nothing was written.
	latest, err := env.client.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), latest)
	_, err = env.client.ConsensusState(80)
	require.ErrorIs(t, err, store.ErrConsensusStateNotFound)
}

func TestUpdateStateUntrusted(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})
	next := committee(2)
	update := env.update(80, 72, 81, &next, env.execRoot)

	// A committee that does not match the stored aggregate key.
	var mismatch *light.TrustedSyncCommitteeMismatchError
	_, err := env.client.UpdateState(env.header(70, light.CurrentActiveSyncCommittee(committee(9)), update), now(81))
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, committee(1).AggregatePubkey, mismatch.Expected)
	assert.Equal(t, committee(9).AggregatePubkey, mismatch.Found)

	// No next committee is stored at slot 70 yet.
	_, err = env.client.UpdateState(env.header(70, light.NextActiveSyncCommittee(committee(1)), update), now(81))
	require.ErrorIs(t, err, light.ErrNoStoredNextSyncCommittee)

	// The header must build on the latest consensus state.
	var slotErr *TrustedSlotError
	_, err = env.client.UpdateState(env.header(60, light.CurrentActiveSyncCommittee(committee(1)), update), now(81))
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, uint64(70), slotErr.Expected)
	assert.Equal(t, uint64(60), slotErr.Found)

	// Participation bits must cover the whole committee.
	short := update
	short.SyncAggregate.SyncCommitteeBits = hexutil.Bytes{0xff}
	var bitsErr *light.SyncCommitteeBitsError
	_, err = env.client.UpdateState(env.header(70, light.CurrentActiveSyncCommittee(committee(1)), short), now(81))
	require.ErrorAs(t, err, &bitsErr)
	assert.Equal(t, uint64(8), bitsErr.Bits)
	assert.Equal(t, uint64(16), bitsErr.CommitteeSize)

	latest, err := env.client.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), latest)
	slots, err := env.db.ConsensusSlots(env.client.ID())
	require.NoError(t, err)
	assert.Equal(t, []uint64{70}, slots)
}

func TestMisbehaviour(t *testing.T) {
	env := newTestEnv(t, staticVerifier{})
	misbehaviour := &light.Misbehaviour{
		TrustedSlot:   70,
		SyncCommittee: light.CurrentActiveSyncCommittee(committee(1)),
		Update1:       env.update(80, 72, 81, nil, common.Hash{0x01}),
		Update2:       env.update(80, 72, 81, nil, common.Hash{0x02}),
	}
	enc, err := json.Marshal(misbehaviour)
	require.NoError(t, err)
	require.NoError(t, env.client.VerifyClientMessage(enc, now(81)))

	found, err := env.client.CheckForMisbehaviour(misbehaviour, now(81))
	require.NoError(t, err)
	assert.True(t, found)

	// Identical updates are no misbehaviour.
	same := *misbehaviour
	same.Update2 = same.Update1
	found, err = env.client.CheckForMisbehaviour(&same, now(81))
	var rootsMatch *light.MisbehaviourRootsMatchError
	require.ErrorAs(t, err, &rootsMatch)
	assert.False(t, found)

	// An unknown trusted slot.
	unknown := *misbehaviour
	unknown.TrustedSlot = 71
	_, err = env.client.CheckForMisbehaviour(&unknown, now(81))
	require.ErrorIs(t, err, store.ErrConsensusStateNotFound)

	// Conflicting updates signed by an untrusted committee.
	forged := *misbehaviour
	forged.SyncCommittee = light.CurrentActiveSyncCommittee(committee(9))
	var mismatch *light.TrustedSyncCommitteeMismatchError
	found, err = env.client.CheckForMisbehaviour(&forged, now(81))
	require.ErrorAs(t, err, &mismatch)
	assert.False(t, found)
	forged.SyncCommittee = light.NextActiveSyncCommittee(committee(2))
	_, err = env.client.CheckForMisbehaviour(&forged, now(81))
	require.ErrorIs(t, err, light.ErrNoStoredNextSyncCommittee)
	status, err := env.client.Status()
	require.NoError(t, err)
	assert.Equal(t, Active, status)

	require.NoError(t, env.client.UpdateStateOnMisbehaviour())
	require.NoError(t, env.client.UpdateStateOnMisbehaviour())
	status, err = env.client.Status()
	require.NoError(t, err)
	assert.Equal(t, Frozen, status)

	// A frozen client rejects everything but queries.
	next := committee(2)
	header := env.header(70, light.CurrentActiveSyncCommittee(committee(1)), env.update(80, 72, 81, &next, env.execRoot))
	_, err = env.client.UpdateState(header, now(81))
	require.ErrorIs(t, err, ErrClientFrozen)
	require.ErrorIs(t, env.client.VerifyClientMessage(enc, now(81)), ErrClientFrozen)
	_, err = env.client.CheckForMisbehaviour(misbehaviour, now(81))
	require.ErrorIs(t, err, ErrClientFrozen)
	require.ErrorIs(t, env.client.VerifyNonMembership(70, nil, nil), ErrClientFrozen)

	latest, err := env.client.LatestHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(70), latest)
}

func TestVerifyMembership(t *testing.T) {
	db := store.New(memorydb.New(), 1)
	client := New("eth-1", db, staticVerifier{})
	require.NoError(t, client.Instantiate(
		&light.ClientState{LatestSlot: 10, IbcCommitmentSlot: uint256.NewInt(1)},
		&light.ConsensusState{Slot: 10, StorageRoot: common.HexToHash("0xe488caae2c0464e311e4a2df82bc74885fa81778d04131db6af3a451110a5eb5")},
	))

	value := uint256.MustFromHex("0xb2ae8ab0be3bda2f81dc166497902a1832fea11b886bc7a0980dec7a219582db")
	proof, err := json.Marshal(&light.StorageProof{
		Key:   common.HexToHash("0x75d7411cb01daad167713b5a9b7219670f0e500653cbbcd45cfe1bfe04222459"),
		Value: hexutil.U256(*value),
		Proof: []hexutil.Bytes{
			hexutil.MustDecode("0xf8718080a0911797c4b8cdbd1d8fa643b31ff0a469fae0f9b2ecbb0fa45a5ebe497f5e7130a065ea7eb6ae4e9747a131961beda4e9fd3040521e58845f4a286fb472eb0415168080a057b16d9a3bbb2d106b4d1b12dca3504f61899c7c660b036848511426ed342dd680808080808080808080"),
			hexutil.MustDecode("0xf843a03d3c3bcf030006afea2a677a6ff5bf3f7f111e87461c8848cf062a5756d1a888a1a0b2ae8ab0be3bda2f81dc166497902a1832fea11b886bc7a0980dec7a219582db"),
		},
	})
	require.NoError(t, err)
	path := [][]byte{hexutil.MustDecode("0x30372d74656e6465726d696e742d30010000000000000001")}
	word := value.Bytes32()

	require.NoError(t, client.VerifyMembership(10, proof, path, word[:]))

	var proofErr *light.StorageProofError
	require.ErrorAs(t, client.VerifyNonMembership(10, proof, path), &proofErr)
	var mismatch *light.StoredValueMismatchError
	require.ErrorAs(t, client.VerifyMembership(10, proof, path, nil), &mismatch)

	require.ErrorIs(t, client.VerifyMembership(11, proof, path, word[:]), store.ErrConsensusStateNotFound)
	require.ErrorIs(t, client.VerifyMembership(10, proof, nil, word[:]), light.ErrEmptyPath)
}
