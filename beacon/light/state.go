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
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

// ClientState is the per-chain configuration and bookkeeping of a light
// client instance.
type ClientState struct {
	ChainID                      uint64                `json:"chain_id"`
	GenesisValidatorsRoot        common.Hash           `json:"genesis_validators_root"`
	MinSyncCommitteeParticipants uint64                `json:"min_sync_committee_participants"`
	GenesisTime                  uint64                `json:"genesis_time"`
	ForkParameters               params.ForkParameters `json:"fork_parameters"`
	SecondsPerSlot               uint64                `json:"seconds_per_slot"`
	SlotsPerEpoch                uint64                `json:"slots_per_epoch"`
	EpochsPerSyncCommitteePeriod uint64                `json:"epochs_per_sync_committee_period"`
	LatestSlot                   uint64                `json:"latest_slot"`
	IsFrozen                     bool                  `json:"is_frozen"`

	// IbcCommitmentSlot is the storage slot of the commitment mapping in
	// the tracked contract. It is encoded as a 0x-prefixed hex quantity.
	IbcCommitmentSlot  *uint256.Int   `json:"ibc_commitment_slot"`
	IbcContractAddress common.Address `json:"ibc_contract_address"`
}

// NewClientState returns the state of a new client tracking the given
// contract on a chain with the given parameters.
func NewClientState(chainID uint64, spec *params.ChainSpec, contract common.Address, commitmentSlot *uint256.Int, latestSlot uint64) *ClientState {
	return &ClientState{
		ChainID:                      chainID,
		GenesisValidatorsRoot:        spec.GenesisValidatorsRoot,
		MinSyncCommitteeParticipants: spec.MinSyncCommitteeParticipants,
		GenesisTime:                  spec.GenesisTime,
		ForkParameters:               spec.Forks,
		SecondsPerSlot:               spec.SecondsPerSlot,
		SlotsPerEpoch:                spec.SlotsPerEpoch,
		EpochsPerSyncCommitteePeriod: spec.EpochsPerSyncCommitteePeriod,
		LatestSlot:                   latestSlot,
		IbcCommitmentSlot:            commitmentSlot,
		IbcContractAddress:           contract,
	}
}

// clientState drops the JSON methods of ClientState.
type clientState ClientState

func (c ClientState) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		clientState
		IbcCommitmentSlot *hexutil.U256 `json:"ibc_commitment_slot"`
	}{clientState(c), (*hexutil.U256)(c.commitmentSlot())})
}

func (c *ClientState) UnmarshalJSON(input []byte) error {
	var dec struct {
		clientState
		IbcCommitmentSlot *hexutil.U256 `json:"ibc_commitment_slot"`
	}
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*c = ClientState(dec.clientState)
	c.IbcCommitmentSlot = (*uint256.Int)(dec.IbcCommitmentSlot)
	return nil
}

func (c *ClientState) commitmentSlot() *uint256.Int {
	if c.IbcCommitmentSlot == nil {
		return new(uint256.Int)
	}
	return c.IbcCommitmentSlot
}

// syncCommitteePeriod returns the sync committee period of the given slot.
func (c *ClientState) syncCommitteePeriod(slot uint64) uint64 {
	return types.ComputeSyncCommitteePeriodAtSlot(c.SlotsPerEpoch, c.EpochsPerSyncCommitteePeriod, slot)
}

// currentSlot converts a unix timestamp into a slot number.
func (c *ClientState) currentSlot(timestamp uint64) (uint64, error) {
	slot, ok := types.ComputeSlotAtTimestamp(c.GenesisTime, c.SecondsPerSlot, timestamp)
	if !ok {
		return 0, &SlotAtTimestampError{
			Timestamp:      timestamp,
			Genesis:        c.GenesisTime,
			SecondsPerSlot: c.SecondsPerSlot,
			GenesisSlot:    params.GenesisSlot,
		}
	}
	return slot, nil
}

// ConsensusState is the trusted state recorded at a single slot. Only the
// aggregate keys of the sync committees are kept, the full committees are
// supplied alongside each header.
type ConsensusState struct {
	Slot                 uint64           `json:"slot"`
	StateRoot            common.Hash      `json:"state_root"`
	StorageRoot          common.Hash      `json:"storage_root"`
	Timestamp            uint64           `json:"timestamp"`
	CurrentSyncCommittee types.BLSPubkey  `json:"current_sync_committee"`
	NextSyncCommittee    *types.BLSPubkey `json:"next_sync_committee"`
}

// Copy returns a deep copy of the state.
func (s *ConsensusState) Copy() *ConsensusState {
	cpy := *s
	if s.NextSyncCommittee != nil {
		next := *s.NextSyncCommittee
		cpy.NextSyncCommittee = &next
	}
	return &cpy
}

var errInvalidActiveCommittee = errors.New("sync committee must be tagged as either Current or Next")

// ActiveSyncCommittee is a full sync committee tagged with its role relative
// to the consensus state it is used with. In JSON it is an object with a
// single "Current" or "Next" key.
type ActiveSyncCommittee struct {
	Committee types.SyncCommittee
	IsNext    bool
}

// CurrentActiveSyncCommittee tags a committee as the current one.
func CurrentActiveSyncCommittee(committee types.SyncCommittee) ActiveSyncCommittee {
	return ActiveSyncCommittee{Committee: committee}
}

// NextActiveSyncCommittee tags a committee as the next one.
func NextActiveSyncCommittee(committee types.SyncCommittee) ActiveSyncCommittee {
	return ActiveSyncCommittee{Committee: committee, IsNext: true}
}

type activeSyncCommitteeJSON struct {
	Current *types.SyncCommittee `json:"Current,omitempty"`
	Next    *types.SyncCommittee `json:"Next,omitempty"`
}

func (a ActiveSyncCommittee) MarshalJSON() ([]byte, error) {
	var enc activeSyncCommitteeJSON
	if a.IsNext {
		enc.Next = &a.Committee
	} else {
		enc.Current = &a.Committee
	}
	return json.Marshal(&enc)
}

func (a *ActiveSyncCommittee) UnmarshalJSON(input []byte) error {
	var dec activeSyncCommitteeJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	switch {
	case dec.Current != nil && dec.Next == nil:
		*a = CurrentActiveSyncCommittee(*dec.Current)
	case dec.Next != nil && dec.Current == nil:
		*a = NextActiveSyncCommittee(*dec.Next)
	default:
		return errInvalidActiveCommittee
	}
	return nil
}

// TrustedConsensusState is a consensus state together with the full sync
// committee matching one of its aggregate keys. It is assembled for a single
// verification and never stored.
type TrustedConsensusState struct {
	State         *ConsensusState
	SyncCommittee ActiveSyncCommittee
}

// NewTrustedConsensusState pairs a stored consensus state with a full sync
// committee. The committee's aggregate key must match the key the state holds
// for the committee's tag.
func NewTrustedConsensusState(state *ConsensusState, committee ActiveSyncCommittee) (*TrustedConsensusState, error) {
	expected := state.CurrentSyncCommittee
	if committee.IsNext {
		if state.NextSyncCommittee == nil {
			return nil, ErrNoStoredNextSyncCommittee
		}
		expected = *state.NextSyncCommittee
	}
	if committee.Committee.AggregatePubkey != expected {
		return nil, &TrustedSyncCommitteeMismatchError{IsNext: committee.IsNext, Expected: expected, Found: committee.Committee.AggregatePubkey}
	}
	return &TrustedConsensusState{State: state, SyncCommittee: committee}, nil
}

// FinalizedSlot returns the slot of the trusted state.
func (t *TrustedConsensusState) FinalizedSlot() uint64 {
	return t.State.Slot
}

// CurrentSyncCommittee returns the committee if it is tagged as current.
func (t *TrustedConsensusState) CurrentSyncCommittee() *types.SyncCommittee {
	if t.SyncCommittee.IsNext {
		return nil
	}
	return &t.SyncCommittee.Committee
}

// NextSyncCommittee returns the committee if it is tagged as next.
func (t *TrustedConsensusState) NextSyncCommittee() *types.SyncCommittee {
	if !t.SyncCommittee.IsNext {
		return nil
	}
	return &t.SyncCommittee.Committee
}

// TrustedSyncCommittee references the consensus state a header builds on and
// carries the sync committee used to verify it.
type TrustedSyncCommittee struct {
	TrustedSlot   uint64              `json:"trusted_slot"`
	SyncCommittee ActiveSyncCommittee `json:"sync_committee"`
}

// AccountProof proves the storage root of the tracked contract against an
// execution state root.
type AccountProof struct {
	Proof       []hexutil.Bytes `json:"proof"`
	StorageRoot common.Hash     `json:"storage_root"`
}

// AccountUpdate wraps the account proof submitted with a header.
type AccountUpdate struct {
	AccountProof AccountProof `json:"account_proof"`
}

// Header is the client message that advances the light client.
type Header struct {
	TrustedSyncCommittee TrustedSyncCommittee    `json:"trusted_sync_committee"`
	ConsensusUpdate      types.LightClientUpdate `json:"consensus_update"`
	AccountUpdate        AccountUpdate           `json:"account_update"`
}

// Misbehaviour is the client message proving that the sync committee signed
// two conflicting updates.
type Misbehaviour struct {
	TrustedSlot   uint64                  `json:"trusted_slot"`
	SyncCommittee ActiveSyncCommittee     `json:"sync_committee"`
	Update1       types.LightClientUpdate `json:"update_1"`
	Update2       types.LightClientUpdate `json:"update_2"`
}

// StorageProof is a proof of a single storage slot of the tracked contract.
type StorageProof struct {
	Key   common.Hash     `json:"key"`
	Value hexutil.U256    `json:"value"`
	Proof []hexutil.Bytes `json:"proof"`
}

func proofNodes(proof []hexutil.Bytes) [][]byte {
	nodes := make([][]byte, len(proof))
	for i, node := range proof {
		nodes[i] = node
	}
	return nodes
}
