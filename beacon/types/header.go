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

// Package types implements a few types of the beacon chain for light client usage.
package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/protolambda/ztyp/tree"
	"github.com/protolambda/ztyp/view"
)

// BeaconBlockHeader defines a beacon header.
//
// See data structure definition here:
// https://github.com/ethereum/consensus-specs/blob/dev/specs/phase0/beacon-chain.md#beaconblockheader
type BeaconBlockHeader struct {
	// Monotonically increasing slot number for the beacon block (may be gapped)
	Slot uint64

	// Index into the validator table who created the beacon block
	ProposerIndex uint64

	// SSZ hash of the parent beacon header
	ParentRoot common.Hash

	// SSZ hash of the beacon state
	StateRoot common.Hash

	// SSZ hash of the beacon block body
	BodyRoot common.Hash
}

type beaconBlockHeaderJSON struct {
	Slot          *common.Decimal `json:"slot"`
	ProposerIndex *common.Decimal `json:"proposer_index"`
	ParentRoot    *common.Hash    `json:"parent_root"`
	StateRoot     *common.Hash    `json:"state_root"`
	BodyRoot      *common.Hash    `json:"body_root"`
}

// MarshalJSON encodes the header with decimal string slot numbers.
func (h BeaconBlockHeader) MarshalJSON() ([]byte, error) {
	return json.Marshal(&beaconBlockHeaderJSON{
		Slot:          (*common.Decimal)(&h.Slot),
		ProposerIndex: (*common.Decimal)(&h.ProposerIndex),
		ParentRoot:    &h.ParentRoot,
		StateRoot:     &h.StateRoot,
		BodyRoot:      &h.BodyRoot,
	})
}

// UnmarshalJSON decodes a header, all fields are required.
func (h *BeaconBlockHeader) UnmarshalJSON(input []byte) error {
	var dec beaconBlockHeaderJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Slot == nil {
		return errMissingField("slot", "BeaconBlockHeader")
	}
	h.Slot = uint64(*dec.Slot)
	if dec.ProposerIndex == nil {
		return errMissingField("proposer_index", "BeaconBlockHeader")
	}
	h.ProposerIndex = uint64(*dec.ProposerIndex)
	if dec.ParentRoot == nil {
		return errMissingField("parent_root", "BeaconBlockHeader")
	}
	h.ParentRoot = *dec.ParentRoot
	if dec.StateRoot == nil {
		return errMissingField("state_root", "BeaconBlockHeader")
	}
	h.StateRoot = *dec.StateRoot
	if dec.BodyRoot == nil {
		return errMissingField("body_root", "BeaconBlockHeader")
	}
	h.BodyRoot = *dec.BodyRoot
	return nil
}

// HashTreeRoot implements tree.HTR.
func (h *BeaconBlockHeader) HashTreeRoot(hFn tree.HashFn) tree.Root {
	return hFn.HashTreeRoot(
		view.Uint64View(h.Slot),
		view.Uint64View(h.ProposerIndex),
		(*tree.Root)(&h.ParentRoot),
		(*tree.Root)(&h.StateRoot),
		(*tree.Root)(&h.BodyRoot),
	)
}

// Hash calculates the block root of the header.
func (h *BeaconBlockHeader) Hash() common.Hash {
	return common.Hash(h.HashTreeRoot(tree.GetHashFn()))
}
