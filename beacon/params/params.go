// Copyright 2022 The go-ethereum Authors
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

package params

const (
	// GenesisSlot is the slot number of the beacon genesis block.
	GenesisSlot = 0

	BLSSignatureSize = 96
	BLSPubkeySize    = 48

	// MaxSyncCommitteeSize is the mainnet preset committee size. Minimal
	// networks run with smaller committees.
	MaxSyncCommitteeSize     = 512
	SyncCommitteeBitmaskSize = MaxSyncCommitteeSize / 8

	BytesPerLogsBloom = 256
	MaxExtraDataBytes = 32
)

// Generalized indices (and the depth of the subtree they live in) of the
// beacon state and block body fields proven by light client updates.
const (
	FinalizedRootIndex  = 105
	FinalityBranchDepth = 6

	NextSyncCommitteeIndex       = 55
	NextSyncCommitteeBranchDepth = 5

	CurrentSyncCommitteeIndex = 54

	ExecutionPayloadIndex = 25
	ExecutionBranchDepth  = 4
)
