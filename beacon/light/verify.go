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

// Package light implements the verification core of a sync committee based
// beacon chain light client: header updates, state advancement, misbehaviour
// detection and storage membership proofs.
package light

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/triedb"
	"github.com/sunyihoo/ethereum-light-client/beacon/merkle"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

// BLSVerifier checks sync committee signatures. Implementations must be safe
// for concurrent use.
type BLSVerifier interface {
	// FastAggregateVerify returns nil if signature is a valid aggregate
	// signature of all pubkeys over msg.
	FastAggregateVerify(pubkeys []types.BLSPubkey, msg common.Hash, signature types.BLSSignature) error
}

// VerifyHeader checks a header against the consensus state it builds on,
// without changing any state. Besides the update itself it requires a sync
// committee supermajority and verifies the storage root of the tracked
// contract against the attested execution state root.
func VerifyHeader(consensusState *ConsensusState, clientState *ClientState, currentTimestamp uint64, header *Header, verifier BLSVerifier) error {
	trusted := &TrustedConsensusState{
		State:         consensusState,
		SyncCommittee: header.TrustedSyncCommittee.SyncCommittee,
	}
	currentSlot, err := clientState.currentSlot(currentTimestamp)
	if err != nil {
		return err
	}
	update := &header.ConsensusUpdate
	if err := ValidateLightClientUpdate(clientState, trusted, update, currentSlot, verifier); err != nil {
		return err
	}
	if !update.SyncAggregate.ValidateSignatureSupermajority() {
		return ErrNotEnoughSignatures
	}
	proof := &header.AccountUpdate.AccountProof
	err = triedb.VerifyAccountStorageRoot(update.AttestedHeader.Execution.StateRoot, clientState.IbcContractAddress, proofNodes(proof.Proof), proof.StorageRoot)
	if err != nil {
		return &StorageProofError{Err: err}
	}
	return nil
}

// ValidateLightClientUpdate checks a light client update against a trusted
// consensus state. Cheap structural checks run before the Merkle proofs and
// the signature check.
func ValidateLightClientUpdate(clientState *ClientState, trusted *TrustedConsensusState, update *types.LightClientUpdate, currentSlot uint64, verifier BLSVerifier) error {
	if !update.SyncAggregate.HasSufficientParticipants(clientState.MinSyncCommitteeParticipants) {
		return &InsufficientParticipantsError{Participants: update.SyncAggregate.NumParticipants()}
	}
	if err := IsValidLightClientHeader(clientState, &update.AttestedHeader); err != nil {
		return err
	}
	var (
		attestedSlot  = update.AttestedHeader.Beacon.Slot
		finalizedSlot = update.FinalizedHeader.Beacon.Slot
	)
	if finalizedSlot == params.GenesisSlot {
		return ErrFinalizedSlotIsGenesis
	}
	if currentSlot < update.SignatureSlot {
		return &FutureUpdateError{CurrentSlot: currentSlot, SignatureSlot: update.SignatureSlot}
	}
	if !(update.SignatureSlot > attestedSlot && attestedSlot >= finalizedSlot) {
		return &InvalidSlotsError{SignatureSlot: update.SignatureSlot, AttestedSlot: attestedSlot, FinalizedSlot: finalizedSlot}
	}

	var (
		storedPeriod    = clientState.syncCommitteePeriod(trusted.FinalizedSlot())
		signaturePeriod = clientState.syncCommitteePeriod(update.SignatureSlot)
		trustedNext     = trusted.NextSyncCommittee()
	)
	if trustedNext != nil {
		if signaturePeriod != storedPeriod && signaturePeriod != storedPeriod+1 {
			return &SignaturePeriodError{SignaturePeriod: signaturePeriod, StoredPeriod: storedPeriod}
		}
	} else if signaturePeriod != storedPeriod {
		return &SignaturePeriodNoNextError{SignaturePeriod: signaturePeriod, StoredPeriod: storedPeriod}
	}

	// An update that does not advance the finalized slot is still useful if
	// it supplies the next sync committee of the stored period.
	attestedPeriod := clientState.syncCommitteePeriod(attestedSlot)
	if !(attestedSlot > trusted.FinalizedSlot() ||
		(attestedPeriod == storedPeriod && update.NextSyncCommittee != nil && trustedNext == nil)) {
		return &IrrelevantUpdateError{
			AttestedSlot:            attestedSlot,
			TrustedFinalizedSlot:    trusted.FinalizedSlot(),
			AttestedPeriod:          attestedPeriod,
			StoredPeriod:            storedPeriod,
			UpdateHasNextCommittee:  update.NextSyncCommittee != nil,
			TrustedHasNextCommittee: trustedNext != nil,
		}
	}

	if err := IsValidLightClientHeader(clientState, &update.FinalizedHeader); err != nil {
		return err
	}
	finalizedRoot := merkle.Value(update.FinalizedHeader.Beacon.Hash())
	err := merkle.VerifyBranch(finalizedRoot, update.FinalityBranch[:], params.FinalityBranchDepth,
		merkle.SubtreeIndex(params.FinalizedRootIndex), merkle.Value(update.AttestedHeader.Beacon.StateRoot))
	if err != nil {
		return &FinalizedHeaderError{Err: err}
	}

	if next := update.NextSyncCommittee; next != nil {
		if trustedNext != nil && attestedPeriod == storedPeriod && !next.Equal(trustedNext) {
			return &NextCommitteeMismatchError{Expected: trustedNext.AggregatePubkey, Found: next.AggregatePubkey}
		}
		var branch types.NextSyncCommitteeBranch
		if update.NextSyncCommitteeBranch != nil {
			branch = *update.NextSyncCommitteeBranch
		}
		err := merkle.VerifyBranch(merkle.Value(next.Root()), branch[:], params.NextSyncCommitteeBranchDepth,
			merkle.SubtreeIndex(params.NextSyncCommitteeIndex), merkle.Value(update.AttestedHeader.Beacon.StateRoot))
		if err != nil {
			return &NextCommitteeBranchError{Err: err}
		}
	}

	var committee *types.SyncCommittee
	if signaturePeriod == storedPeriod {
		if committee = trusted.CurrentSyncCommittee(); committee == nil {
			return ErrExpectedCurrentSyncCommittee
		}
	} else {
		if committee = trustedNext; committee == nil {
			return ErrExpectedNextSyncCommittee
		}
	}
	if size := uint64(len(committee.Pubkeys)); update.SyncAggregate.CommitteeSize() != size {
		return &SyncCommitteeBitsError{Bits: update.SyncAggregate.CommitteeSize(), CommitteeSize: size}
	}
	participants := update.SyncAggregate.Participants(committee.Pubkeys)

	// The fork version is taken from the slot before the signature slot.
	forkVersionSlot := max(update.SignatureSlot, 1) - 1
	forkVersion := clientState.ForkParameters.ComputeForkVersion(types.ComputeEpochAtSlot(clientState.SlotsPerEpoch, forkVersionSlot))
	domain := params.ComputeDomain(params.DomainSyncCommittee, &forkVersion, &clientState.GenesisValidatorsRoot,
		clientState.ForkParameters.GenesisForkVersion)
	signingRoot := params.ComputeSigningRoot(update.AttestedHeader.Beacon.Hash(), domain)

	if err := verifier.FastAggregateVerify(participants, signingRoot, update.SyncAggregate.SyncCommitteeSignature); err != nil {
		return &SignatureError{Err: err}
	}
	return nil
}

// IsValidLightClientHeader checks the fork of a light client header and the
// proof of its execution payload header against the beacon body root.
func IsValidLightClientHeader(clientState *ClientState, header *types.LightClientHeader) error {
	epoch := types.ComputeEpochAtSlot(clientState.SlotsPerEpoch, header.Beacon.Slot)

	// Blob gas fields only exist from Deneb on.
	if epoch < clientState.ForkParameters.Deneb.Epoch {
		if header.Execution.BlobGasUsed != 0 || header.Execution.ExcessBlobGas != 0 {
			return ErrMustBeDeneb
		}
	}
	if epoch < clientState.ForkParameters.Capella.Epoch {
		return ErrInvalidChainVersion
	}
	root, err := ExecutionRoot(clientState, header)
	if err != nil {
		return err
	}
	return merkle.VerifyBranch(merkle.Value(root), header.ExecutionBranch[:], params.ExecutionBranchDepth,
		merkle.SubtreeIndex(params.ExecutionPayloadIndex), merkle.Value(header.Beacon.BodyRoot))
}

// ExecutionRoot returns the hash tree root of the execution payload header.
// Only Deneb payload headers are supported.
func ExecutionRoot(clientState *ClientState, header *types.LightClientHeader) (common.Hash, error) {
	epoch := types.ComputeEpochAtSlot(clientState.SlotsPerEpoch, header.Beacon.Slot)
	if epoch < clientState.ForkParameters.Deneb.Epoch {
		return common.Hash{}, ErrMustBeDeneb
	}
	return header.Execution.PayloadRoot(), nil
}
