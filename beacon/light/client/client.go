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

// Package client runs light client messages against the persisted state of a
// single light client instance.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/ethereum-light-client/beacon/light"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/store"
)

// Status is the activity status of a light client.
type Status string

const (
	Active Status = "Active"
	Frozen Status = "Frozen"
)

var (
	ErrClientFrozen         = errors.New("client is frozen")
	ErrClientExists         = errors.New("client already exists")
	ErrInvalidClientMessage = errors.New("invalid client message")
)

// TrustedSlotError is returned for headers that do not build on the latest
// consensus state.
type TrustedSlotError struct {
	Expected uint64
	Found    uint64
}

func (e *TrustedSlotError) Error() string {
	return fmt.Sprintf("header trusted slot %d does not match latest consensus state slot %d", e.Found, e.Expected)
}

// Client is a light client instance backed by a store. Messages that change
// the state of the client are serialized through the store's client lock.
type Client struct {
	id       string
	db       *store.Store
	verifier light.BLSVerifier
	log      log.Logger
}

// New returns the client with the given id. The client does not need to
// exist in the store until Instantiate is called.
func New(id string, db *store.Store, verifier light.BLSVerifier) *Client {
	return &Client{
		id:       id,
		db:       db,
		verifier: verifier,
		log:      log.New("client", id),
	}
}

// ID returns the identifier of the client.
func (c *Client) ID() string {
	return c.id
}

// Instantiate creates the client from its initial client and consensus
// states. The consensus state is stored at its own slot.
func (c *Client) Instantiate(clientState *light.ClientState, consensusState *light.ConsensusState) error {
	unlock := c.db.Lock(c.id)
	defer unlock()

	if has, err := c.db.HasClient(c.id); err != nil {
		return err
	} else if has {
		return fmt.Errorf("%w: %s", ErrClientExists, c.id)
	}
	if err := c.db.Commit(c.id, clientState, consensusState.Slot, consensusState); err != nil {
		return err
	}
	c.log.Info("Instantiated light client", "chain", clientState.ChainID, "slot", consensusState.Slot, "latest", clientState.LatestSlot)
	return nil
}

// DecodeClientMessage decodes a JSON client message, which is either a
// header or a misbehaviour. Exactly one of the returned values is non-nil
// if the error is nil.
func DecodeClientMessage(msg []byte) (*light.Header, *light.Misbehaviour, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidClientMessage, err)
	}
	switch {
	case fields["consensus_update"] != nil:
		header := new(light.Header)
		if err := json.Unmarshal(msg, header); err != nil {
			return nil, nil, fmt.Errorf("%w: header: %v", ErrInvalidClientMessage, err)
		}
		return header, nil, nil
	case fields["update_1"] != nil:
		misbehaviour := new(light.Misbehaviour)
		if err := json.Unmarshal(msg, misbehaviour); err != nil {
			return nil, nil, fmt.Errorf("%w: misbehaviour: %v", ErrInvalidClientMessage, err)
		}
		return nil, misbehaviour, nil
	}
	return nil, nil, ErrInvalidClientMessage
}

// activeClientState loads the client state and fails if the client is frozen.
func (c *Client) activeClientState() (*light.ClientState, error) {
	clientState, err := c.db.ReadClientState(c.id)
	if err != nil {
		return nil, err
	}
	if clientState.IsFrozen {
		return nil, ErrClientFrozen
	}
	return clientState, nil
}

// VerifyClientMessage checks a header against the latest consensus state, or
// a misbehaviour against the consensus state at its trusted slot. now is the
// current unix time in seconds.
func (c *Client) VerifyClientMessage(msg []byte, now uint64) error {
	header, misbehaviour, err := DecodeClientMessage(msg)
	if err != nil {
		return err
	}
	clientState, err := c.activeClientState()
	if err != nil {
		return err
	}
	if header != nil {
		_, err = c.verifyHeader(clientState, header, now)
	} else {
		err = c.verifyMisbehaviour(clientState, misbehaviour, now)
	}
	return err
}

func (c *Client) verifyHeader(clientState *light.ClientState, header *light.Header, now uint64) (*light.ConsensusState, error) {
	consensusState, err := c.db.ReadConsensusState(c.id, clientState.LatestSlot)
	if err != nil {
		return nil, err
	}
	if slot := header.TrustedSyncCommittee.TrustedSlot; slot != consensusState.Slot {
		rejectedMeter.Mark(1)
		return nil, &TrustedSlotError{Expected: consensusState.Slot, Found: slot}
	}
	if _, err := light.NewTrustedConsensusState(consensusState, header.TrustedSyncCommittee.SyncCommittee); err != nil {
		rejectedMeter.Mark(1)
		return nil, fmt.Errorf("header verification failed: %w", err)
	}
	if err := light.VerifyHeader(consensusState, clientState, now, header, c.verifier); err != nil {
		rejectedMeter.Mark(1)
		c.log.Debug("Rejected header", "attested", header.ConsensusUpdate.AttestedHeader.Beacon.Slot, "err", err)
		return nil, fmt.Errorf("header verification failed: %w", err)
	}
	return consensusState, nil
}

func (c *Client) verifyMisbehaviour(clientState *light.ClientState, misbehaviour *light.Misbehaviour, now uint64) error {
	consensusState, err := c.db.ReadConsensusState(c.id, misbehaviour.TrustedSlot)
	if err != nil {
		return err
	}
	trusted, err := light.NewTrustedConsensusState(consensusState, misbehaviour.SyncCommittee)
	if err != nil {
		rejectedMeter.Mark(1)
		return fmt.Errorf("misbehaviour verification failed: %w", err)
	}
	if err := light.VerifyMisbehaviour(clientState, trusted, &misbehaviour.Update1, &misbehaviour.Update2, now, c.verifier); err != nil {
		rejectedMeter.Mark(1)
		return fmt.Errorf("misbehaviour verification failed: %w", err)
	}
	return nil
}

// UpdateState verifies a header against the latest consensus state and
// applies it. It returns the slots of the written consensus states.
func (c *Client) UpdateState(header *light.Header, now uint64) ([]uint64, error) {
	start := time.Now()
	unlock := c.db.Lock(c.id)
	defer unlock()

	clientState, err := c.activeClientState()
	if err != nil {
		return nil, err
	}
	consensusState, err := c.verifyHeader(clientState, header, now)
	if err != nil {
		return nil, err
	}
	slot, newConsensusState, newClientState, err := light.UpdateConsensusState(consensusState, clientState, header)
	if err != nil {
		rejectedMeter.Mark(1)
		return nil, fmt.Errorf("state update failed: %w", err)
	}
	if err := c.db.Commit(c.id, newClientState, slot, newConsensusState); err != nil {
		return nil, err
	}
	updateMeter.Mark(1)
	updateTimer.UpdateSince(start)

	latest := clientState.LatestSlot
	if newClientState != nil {
		latest = newClientState.LatestSlot
	}
	c.log.Info("Updated light client state", "slot", slot, "consensus", newConsensusState.Slot, "latest", latest,
		"next", newConsensusState.NextSyncCommittee != nil, "elapsed", time.Since(start))
	return []uint64{slot}, nil
}

// CheckForMisbehaviour reports whether the message proves misbehaviour of
// the sync committee.
func (c *Client) CheckForMisbehaviour(misbehaviour *light.Misbehaviour, now uint64) (bool, error) {
	clientState, err := c.activeClientState()
	if err != nil {
		return false, err
	}
	if err := c.verifyMisbehaviour(clientState, misbehaviour, now); err != nil {
		return false, err
	}
	misbehaviourMeter.Mark(1)
	c.log.Warn("Found light client misbehaviour", "trusted", misbehaviour.TrustedSlot,
		"finalized", misbehaviour.Update1.FinalizedHeader.Beacon.Slot)
	return true, nil
}

// UpdateStateOnMisbehaviour freezes the client. A frozen client never
// becomes active again.
func (c *Client) UpdateStateOnMisbehaviour() error {
	unlock := c.db.Lock(c.id)
	defer unlock()

	clientState, err := c.db.ReadClientState(c.id)
	if err != nil {
		return err
	}
	if clientState.IsFrozen {
		return nil
	}
	clientState.IsFrozen = true
	if err := c.db.WriteClientState(c.id, clientState); err != nil {
		return err
	}
	frozenCounter.Inc(1)
	c.log.Warn("Froze light client", "latest", clientState.LatestSlot)
	return nil
}

// VerifyMembership checks that the storage proof proves value at path
// against the consensus state at the given height.
func (c *Client) VerifyMembership(height uint64, proof []byte, path [][]byte, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return c.verifyMembership(height, proof, path, value)
}

// VerifyNonMembership checks that the storage proof proves path to be unset
// against the consensus state at the given height.
func (c *Client) VerifyNonMembership(height uint64, proof []byte, path [][]byte) error {
	return c.verifyMembership(height, proof, path, nil)
}

func (c *Client) verifyMembership(height uint64, proof []byte, path [][]byte, value []byte) error {
	clientState, err := c.activeClientState()
	if err != nil {
		return err
	}
	consensusState, err := c.db.ReadConsensusState(c.id, height)
	if err != nil {
		return err
	}
	if err := light.VerifyMembership(consensusState, clientState, proof, path, value); err != nil {
		rejectedMeter.Mark(1)
		return fmt.Errorf("membership verification failed: %w", err)
	}
	membershipMeter.Mark(1)
	return nil
}

// Status returns whether the client is active or frozen.
func (c *Client) Status() (Status, error) {
	clientState, err := c.db.ReadClientState(c.id)
	if err != nil {
		return "", err
	}
	if clientState.IsFrozen {
		return Frozen, nil
	}
	return Active, nil
}

// TimestampAtHeight returns the timestamp of the consensus state at the given
// height in nanoseconds.
func (c *Client) TimestampAtHeight(height uint64) (uint64, error) {
	consensusState, err := c.db.ReadConsensusState(c.id, height)
	if err != nil {
		return 0, err
	}
	return consensusState.Timestamp * uint64(time.Second), nil
}

// LatestHeight returns the latest slot of the client.
func (c *Client) LatestHeight() (uint64, error) {
	clientState, err := c.db.ReadClientState(c.id)
	if err != nil {
		return 0, err
	}
	return clientState.LatestSlot, nil
}

// ClientState returns the stored client state.
func (c *Client) ClientState() (*light.ClientState, error) {
	return c.db.ReadClientState(c.id)
}

// ConsensusState returns a copy of the consensus state at the given height.
func (c *Client) ConsensusState(height uint64) (*light.ConsensusState, error) {
	consensusState, err := c.db.ReadConsensusState(c.id, height)
	if err != nil {
		return nil, err
	}
	return consensusState.Copy(), nil
}
