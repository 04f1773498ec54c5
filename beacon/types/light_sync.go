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
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/ethereum-light-client/beacon/merkle"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
)

// Fixed size merkle branches of light client updates. They decode from JSON
// arrays of exactly the right length.
type (
	ExecutionBranch         [params.ExecutionBranchDepth]merkle.Value
	FinalityBranch          [params.FinalityBranchDepth]merkle.Value
	NextSyncCommitteeBranch [params.NextSyncCommitteeBranchDepth]merkle.Value
)

func (b *ExecutionBranch) UnmarshalJSON(input []byte) error {
	return unmarshalBranch(input, b[:])
}

func (b *FinalityBranch) UnmarshalJSON(input []byte) error {
	return unmarshalBranch(input, b[:])
}

func (b *NextSyncCommitteeBranch) UnmarshalJSON(input []byte) error {
	return unmarshalBranch(input, b[:])
}

func unmarshalBranch(input []byte, dst []merkle.Value) error {
	var values merkle.Values
	if err := json.Unmarshal(input, &values); err != nil {
		return err
	}
	if len(values) != len(dst) {
		return fmt.Errorf("invalid branch length: have %d, want %d", len(values), len(dst))
	}
	copy(dst, values)
	return nil
}

// LightClientHeader is a beacon header together with the execution payload
// header of its block and the branch proving it against the body root.
//
// https://github.com/ethereum/consensus-specs/blob/dev/specs/capella/light-client/sync-protocol.md#lightclientheader
type LightClientHeader struct {
	Beacon          BeaconBlockHeader      `json:"beacon"`
	Execution       ExecutionPayloadHeader `json:"execution"`
	ExecutionBranch ExecutionBranch        `json:"execution_branch"`
}

// LightClientUpdate is a sync committee signed attested header with the
// finality proof of an earlier header and optionally the next sync committee.
//
// https://github.com/ethereum/consensus-specs/blob/dev/specs/altair/light-client/sync-protocol.md#lightclientupdate
type LightClientUpdate struct {
	AttestedHeader          LightClientHeader
	NextSyncCommittee       *SyncCommittee
	NextSyncCommitteeBranch *NextSyncCommitteeBranch
	FinalizedHeader         LightClientHeader
	FinalityBranch          FinalityBranch
	SyncAggregate           SyncAggregate
	SignatureSlot           uint64
}

type lightClientUpdateJSON struct {
	AttestedHeader          *LightClientHeader       `json:"attested_header"`
	NextSyncCommittee       *SyncCommittee           `json:"next_sync_committee"`
	NextSyncCommitteeBranch *NextSyncCommitteeBranch `json:"next_sync_committee_branch"`
	FinalizedHeader         *LightClientHeader       `json:"finalized_header"`
	FinalityBranch          *FinalityBranch          `json:"finality_branch"`
	SyncAggregate           *SyncAggregate           `json:"sync_aggregate"`
	SignatureSlot           *common.Decimal          `json:"signature_slot"`
}

// MarshalJSON encodes the update, absent committee fields become null.
func (u LightClientUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(&lightClientUpdateJSON{
		AttestedHeader:          &u.AttestedHeader,
		NextSyncCommittee:       u.NextSyncCommittee,
		NextSyncCommitteeBranch: u.NextSyncCommitteeBranch,
		FinalizedHeader:         &u.FinalizedHeader,
		FinalityBranch:          &u.FinalityBranch,
		SyncAggregate:           &u.SyncAggregate,
		SignatureSlot:           (*common.Decimal)(&u.SignatureSlot),
	})
}

// UnmarshalJSON decodes an update. The next sync committee and its branch
// are optional, everything else is required.
func (u *LightClientUpdate) UnmarshalJSON(input []byte) error {
	var dec lightClientUpdateJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	const typ = "LightClientUpdate"
	if dec.AttestedHeader == nil {
		return errMissingField("attested_header", typ)
	}
	u.AttestedHeader = *dec.AttestedHeader
	u.NextSyncCommittee = dec.NextSyncCommittee
	u.NextSyncCommitteeBranch = dec.NextSyncCommitteeBranch
	if dec.FinalizedHeader == nil {
		return errMissingField("finalized_header", typ)
	}
	u.FinalizedHeader = *dec.FinalizedHeader
	if dec.FinalityBranch == nil {
		return errMissingField("finality_branch", typ)
	}
	u.FinalityBranch = *dec.FinalityBranch
	if dec.SyncAggregate == nil {
		return errMissingField("sync_aggregate", typ)
	}
	u.SyncAggregate = *dec.SyncAggregate
	if dec.SignatureSlot == nil {
		return errMissingField("signature_slot", typ)
	}
	u.SignatureSlot = uint64(*dec.SignatureSlot)
	return nil
}

func errMissingField(field, typ string) error {
	return fmt.Errorf("missing required field '%s' for %s", field, typ)
}
