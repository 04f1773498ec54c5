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
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
	"golang.org/x/sync/errgroup"
)

// VerifyMisbehaviour succeeds if both updates finalize the same slot, attest
// to different execution state roots and are each valid against the trusted
// state. A nil error is the proof of misbehaviour; freezing the client is up
// to the caller.
func VerifyMisbehaviour(clientState *ClientState, trusted *TrustedConsensusState, update1, update2 *types.LightClientUpdate, currentTimestamp uint64, verifier BLSVerifier) error {
	slot1, slot2 := update1.FinalizedHeader.Beacon.Slot, update2.FinalizedHeader.Beacon.Slot
	if slot1 != slot2 {
		return &MisbehaviourSlotMismatchError{Slot1: slot1, Slot2: slot2}
	}
	root1, root2 := update1.AttestedHeader.Execution.StateRoot, update2.AttestedHeader.Execution.StateRoot
	if root1 == root2 {
		return &MisbehaviourRootsMatchError{Root: root1}
	}
	currentSlot, err := clientState.currentSlot(currentTimestamp)
	if err != nil {
		return err
	}

	// The updates are checked independently. Errors are reported in argument
	// order so that the result does not depend on scheduling.
	var (
		g    errgroup.Group
		errs [2]error
	)
	for i, update := range []*types.LightClientUpdate{update1, update2} {
		g.Go(func() error {
			errs[i] = ValidateLightClientUpdate(clientState, trusted, update, currentSlot, verifier)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
