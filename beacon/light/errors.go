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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/ethereum-light-client/beacon/types"
)

var (
	ErrEmptyPath          = errors.New("empty path")
	ErrStorageProofDecode = errors.New("unable to decode storage proof")

	// ErrMustBeDeneb is returned for headers before the Deneb fork that carry
	// blob gas fields, and for execution roots requested before Deneb.
	ErrMustBeDeneb         = errors.New("must be deneb or later")
	ErrInvalidChainVersion = errors.New("invalid chain version")

	ErrFinalizedSlotIsGenesis              = errors.New("update finalized slot is equal to genesis slot")
	ErrExpectedCurrentSyncCommittee        = errors.New("expected current sync committee to be provided since update period == current period")
	ErrExpectedNextSyncCommittee           = errors.New("expected next sync committee to be provided since update period > current period")
	ErrNotEnoughSignatures                 = errors.New("not enough signatures")
	ErrStorePeriodMustEqualFinalizedPeriod = errors.New("store period must be equal to finalized period")
	ErrNoStoredNextSyncCommittee           = errors.New("sync committee is tagged next but no next sync committee is stored")
)

// InsufficientParticipantsError is returned when fewer sync committee
// members signed than the client requires.
type InsufficientParticipantsError struct {
	Participants uint64
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("insufficient number of sync committee participants (%d)", e.Participants)
}

// FutureUpdateError is returned for updates signed after the current slot.
type FutureUpdateError struct {
	CurrentSlot   uint64
	SignatureSlot uint64
}

func (e *FutureUpdateError) Error() string {
	return fmt.Sprintf("update is more recent than the current slot (current: %d, signature slot: %d)", e.CurrentSlot, e.SignatureSlot)
}

// InvalidSlotsError is returned unless signature slot > attested slot >=
// finalized slot holds.
type InvalidSlotsError struct {
	SignatureSlot uint64
	AttestedSlot  uint64
	FinalizedSlot uint64
}

func (e *InvalidSlotsError) Error() string {
	return fmt.Sprintf("invalid slots: signature slot %d, attested slot %d, finalized slot %d", e.SignatureSlot, e.AttestedSlot, e.FinalizedSlot)
}

// SignaturePeriodError is returned when the update is signed in a period that
// the trusted state has a next sync committee for, but not one or zero
// periods after the stored period.
type SignaturePeriodError struct {
	SignaturePeriod uint64
	StoredPeriod    uint64
}

func (e *SignaturePeriodError) Error() string {
	return fmt.Sprintf("signature period (%d) must be equal to store period (%d) or the next period when the next sync committee exists", e.SignaturePeriod, e.StoredPeriod)
}

// SignaturePeriodNoNextError is returned when the trusted state has no next
// sync committee and the update is not signed in the stored period.
type SignaturePeriodNoNextError struct {
	SignaturePeriod uint64
	StoredPeriod    uint64
}

func (e *SignaturePeriodNoNextError) Error() string {
	return fmt.Sprintf("signature period (%d) must be equal to store period (%d) when the next sync committee does not exist", e.SignaturePeriod, e.StoredPeriod)
}

// IrrelevantUpdateError is returned for updates that neither advance the
// trusted state nor provide a missing next sync committee.
type IrrelevantUpdateError struct {
	AttestedSlot            uint64
	TrustedFinalizedSlot    uint64
	AttestedPeriod          uint64
	StoredPeriod            uint64
	UpdateHasNextCommittee  bool
	TrustedHasNextCommittee bool
}

func (e *IrrelevantUpdateError) Error() string {
	return fmt.Sprintf("irrelevant update: attested slot %d, trusted finalized slot %d, attested period %d, stored period %d, update next committee set %t, trusted next committee set %t",
		e.AttestedSlot, e.TrustedFinalizedSlot, e.AttestedPeriod, e.StoredPeriod, e.UpdateHasNextCommittee, e.TrustedHasNextCommittee)
}

// NextCommitteeMismatchError is returned when an update of the stored period
// carries a next sync committee different from the trusted one.
type NextCommitteeMismatchError struct {
	Expected types.BLSPubkey
	Found    types.BLSPubkey
}

func (e *NextCommitteeMismatchError) Error() string {
	return fmt.Sprintf("next sync committee mismatch, expected aggregate key %v, found %v", e.Expected, e.Found)
}

// TrustedSyncCommitteeMismatchError is returned when a supplied sync
// committee does not hash to the aggregate key stored in the consensus state.
type TrustedSyncCommitteeMismatchError struct {
	IsNext   bool
	Expected types.BLSPubkey
	Found    types.BLSPubkey
}

func (e *TrustedSyncCommitteeMismatchError) Error() string {
	which := "current"
	if e.IsNext {
		which = "next"
	}
	return fmt.Sprintf("trusted %s sync committee mismatch, expected aggregate key %v, found %v", which, e.Expected, e.Found)
}

// SyncCommitteeBitsError is returned when the participation bitfield does not
// cover exactly the members of the signing committee.
type SyncCommitteeBitsError struct {
	Bits          uint64
	CommitteeSize uint64
}

func (e *SyncCommitteeBitsError) Error() string {
	return fmt.Sprintf("sync committee bits length mismatch, have %d bits for %d members", e.Bits, e.CommitteeSize)
}

// FinalizedHeaderError wraps a failed finality proof.
type FinalizedHeaderError struct {
	Err error
}

func (e *FinalizedHeaderError) Error() string {
	return fmt.Sprintf("failed to validate finalized header: %v", e.Err)
}

func (e *FinalizedHeaderError) Unwrap() error { return e.Err }

// NextCommitteeBranchError wraps a failed next sync committee proof.
type NextCommitteeBranchError struct {
	Err error
}

func (e *NextCommitteeBranchError) Error() string {
	return fmt.Sprintf("failed to validate next sync committee: %v", e.Err)
}

func (e *NextCommitteeBranchError) Unwrap() error { return e.Err }

// SignatureError wraps a rejection by the BLS verifier.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("fast aggregate verify error: %v", e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// StorageProofError wraps a failed account or storage trie proof.
type StorageProofError struct {
	Err error
}

func (e *StorageProofError) Error() string {
	return fmt.Sprintf("failed to verify storage proof: %v", e.Err)
}

func (e *StorageProofError) Unwrap() error { return e.Err }

// SlotAtTimestampError is returned when the current time predates genesis.
type SlotAtTimestampError struct {
	Timestamp      uint64
	Genesis        uint64
	SecondsPerSlot uint64
	GenesisSlot    uint64
}

func (e *SlotAtTimestampError) Error() string {
	return fmt.Sprintf("failed to compute slot at timestamp %d (genesis time %d, seconds per slot %d, genesis slot %d)",
		e.Timestamp, e.Genesis, e.SecondsPerSlot, e.GenesisSlot)
}

// InvalidCommitmentKeyError is returned when a storage proof is for another
// slot than the one derived from the commitment path.
type InvalidCommitmentKeyError struct {
	Expected common.Hash
	Found    common.Hash
}

func (e *InvalidCommitmentKeyError) Error() string {
	return fmt.Sprintf("invalid commitment key, expected %v but found %v", e.Expected, e.Found)
}

// StoredValueMismatchError is returned when the proven value differs from
// the value the caller expects.
type StoredValueMismatchError struct {
	Expected []byte
	Actual   []byte
}

func (e *StoredValueMismatchError) Error() string {
	return fmt.Sprintf("stored value mismatch, expected %s but found %s", hexutil.Encode(e.Expected), hexutil.Encode(e.Actual))
}

// MisbehaviourSlotMismatchError is returned when the finalized headers of
// the two updates are at different slots.
type MisbehaviourSlotMismatchError struct {
	Slot1, Slot2 uint64
}

func (e *MisbehaviourSlotMismatchError) Error() string {
	return fmt.Sprintf("misbehaviour slot mismatch: %d != %d", e.Slot1, e.Slot2)
}

// MisbehaviourRootsMatchError is returned when both updates attest to the
// same execution state root.
type MisbehaviourRootsMatchError struct {
	Root common.Hash
}

func (e *MisbehaviourRootsMatchError) Error() string {
	return fmt.Sprintf("misbehaviour state roots match: %v", e.Root)
}
