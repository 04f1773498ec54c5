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

package types

import "github.com/sunyihoo/ethereum-light-client/beacon/params"

// ComputeEpochAtSlot returns the epoch the given slot belongs to.
func ComputeEpochAtSlot(slotsPerEpoch, slot uint64) uint64 {
	return slot / slotsPerEpoch
}

// ComputeSyncCommitteePeriod returns the sync committee period of an epoch.
func ComputeSyncCommitteePeriod(epochsPerPeriod, epoch uint64) uint64 {
	return epoch / epochsPerPeriod
}

// ComputeSyncCommitteePeriodAtSlot returns the sync committee period the
// given slot belongs to.
func ComputeSyncCommitteePeriodAtSlot(slotsPerEpoch, epochsPerPeriod, slot uint64) uint64 {
	return ComputeSyncCommitteePeriod(epochsPerPeriod, ComputeEpochAtSlot(slotsPerEpoch, slot))
}

// ComputeSlotAtTimestamp returns the slot active at the given unix time. The
// second return value is false if the timestamp predates genesis.
func ComputeSlotAtTimestamp(genesisTime, secondsPerSlot, timestamp uint64) (uint64, bool) {
	if timestamp < genesisTime || secondsPerSlot == 0 {
		return 0, false
	}
	return (timestamp-genesisTime)/secondsPerSlot + params.GenesisSlot, true
}

// ComputeTimestampAtSlot returns the unix time at which the given slot
// starts.
func ComputeTimestampAtSlot(genesisTime, secondsPerSlot, slot uint64) uint64 {
	return genesisTime + (slot-params.GenesisSlot)*secondsPerSlot
}
