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

import "github.com/sunyihoo/ethereum-light-client/beacon/types"

// UpdateConsensusState applies a header that already passed VerifyHeader to
// the consensus state it was verified against. It returns the slot the new
// consensus state is to be stored at, the new consensus state and, if the
// latest slot moved, the new client state. The inputs are not modified.
func UpdateConsensusState(current *ConsensusState, clientState *ClientState, header *Header) (uint64, *ConsensusState, *ClientState, error) {
	var (
		update       = &header.ConsensusUpdate
		attestedSlot = update.AttestedHeader.Beacon.Slot
		storePeriod  = clientState.syncCommitteePeriod(current.Slot)
		updatePeriod = clientState.syncCommitteePeriod(attestedSlot)
		newState     = current.Copy()
		newClient    *ClientState
	)
	var nextAggregate *types.BLSPubkey
	if update.NextSyncCommittee != nil {
		key := update.NextSyncCommittee.AggregatePubkey
		nextAggregate = &key
	}
	if current.NextSyncCommittee != nil {
		// Rotate the committees once the update moves into the next period.
		if updatePeriod == storePeriod+1 {
			newState.CurrentSyncCommittee = *current.NextSyncCommittee
			newState.NextSyncCommittee = nextAggregate
		}
	} else {
		if updatePeriod != storePeriod {
			return 0, nil, nil, ErrStorePeriodMustEqualFinalizedPeriod
		}
		newState.NextSyncCommittee = nextAggregate
	}

	updatedSlot := max(header.TrustedSyncCommittee.TrustedSlot, attestedSlot)

	if attestedSlot > current.Slot {
		newState.Slot = attestedSlot
		newState.StateRoot = update.AttestedHeader.Execution.StateRoot
		newState.StorageRoot = header.AccountUpdate.AccountProof.StorageRoot
		newState.Timestamp = types.ComputeTimestampAtSlot(clientState.GenesisTime, clientState.SecondsPerSlot, attestedSlot)

		if clientState.LatestSlot < attestedSlot {
			cpy := *clientState
			cpy.LatestSlot = attestedSlot
			newClient = &cpy
		}
	}
	return updatedSlot, newState, newClient, nil
}
