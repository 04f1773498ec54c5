// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/ethereum-light-client/beacon/light"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/client"
	"github.com/sunyihoo/ethereum-light-client/cmd/utils"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	dryRunFlag = &cli.BoolFlag{
		Name:     "dryrun",
		Usage:    "Only verify the message without changing the client state",
		Category: flags.MessageCategory,
	}

	initCommand = &cli.Command{
		Action:    initClient,
		Name:      "init",
		Usage:     "Create a light client from a trusted consensus state",
		ArgsUsage: "<consensus-state.json>",
		Flags: flags.Merge(configFlags, utils.DatabaseFlags, utils.NetworkFlags, []cli.Flag{
			utils.ChainSpecFlag,
			utils.ChainIDFlag,
			utils.ContractFlag,
			utils.CommitmentSlotFlag,
			utils.ClientStateFlag,
		}),
		Description: `
The init command creates a light client from a trusted consensus state. The
client state is built from the selected network preset, the tracked contract
and its commitment slot, or read as a whole with --client-state.`,
	}
	updateCommand = &cli.Command{
		Action:    updateClient,
		Name:      "update",
		Usage:     "Verify a header and advance the light client",
		ArgsUsage: "<header.json>",
		Flags:     flags.Merge(configFlags, utils.DatabaseFlags, []cli.Flag{utils.NowFlag, dryRunFlag}),
		Description: `
The update command verifies a header against the latest consensus state of the
client and stores the resulting consensus state.`,
	}
	misbehaviourCommand = &cli.Command{
		Action:    submitMisbehaviour,
		Name:      "misbehaviour",
		Usage:     "Verify a misbehaviour and freeze the light client",
		ArgsUsage: "<misbehaviour.json>",
		Flags:     flags.Merge(configFlags, utils.DatabaseFlags, []cli.Flag{utils.NowFlag, dryRunFlag}),
		Description: `
The misbehaviour command verifies two conflicting updates signed by the sync
committee. If they prove misbehaviour the client is frozen.`,
	}
	statusCommand = &cli.Command{
		Action: showStatus,
		Name:   "status",
		Usage:  "Show the state of the light client",
		Flags:  flags.Merge(configFlags, utils.DatabaseFlags),
	}
)

// currentTime returns the unix time the client messages are checked against.
func currentTime(ctx *cli.Context) uint64 {
	if ctx.IsSet(utils.NowFlag.Name) {
		return ctx.Uint64(utils.NowFlag.Name)
	}
	return uint64(time.Now().Unix())
}

func readJSONFile(file string, v interface{}) error {
	blob, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("invalid %s: %v", file, err)
	}
	return nil
}

// makeClientState builds the initial client state from the command line.
func makeClientState(ctx *cli.Context, consensusState *light.ConsensusState) (*light.ClientState, error) {
	if file := ctx.String(utils.ClientStateFlag.Name); file != "" {
		if err := flags.CheckExclusive(ctx, utils.ClientStateFlag, utils.MainnetFlag, utils.SepoliaFlag, utils.HoleskyFlag, utils.MinimalFlag, utils.ChainSpecFlag); err != nil {
			return nil, err
		}
		clientState := new(light.ClientState)
		if err := readJSONFile(file, clientState); err != nil {
			return nil, err
		}
		return clientState, nil
	}
	spec, chainID, err := utils.MakeChainSpec(ctx)
	if err != nil {
		return nil, err
	}
	contract, err := utils.MakeAddress(ctx)
	if err != nil {
		return nil, err
	}
	commitmentSlot := flags.GlobalU256(ctx, utils.CommitmentSlotFlag.Name)
	return light.NewClientState(chainID, &spec, contract, commitmentSlot, consensusState.Slot), nil
}

func initClient(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need the trusted consensus state file as the sole argument")
	}
	consensusState := new(light.ConsensusState)
	if err := readJSONFile(ctx.Args().First(), consensusState); err != nil {
		return err
	}
	clientState, err := makeClientState(ctx, consensusState)
	if err != nil {
		return err
	}
	if clientState.LatestSlot < consensusState.Slot {
		return fmt.Errorf("latest slot %d of the client state is before the consensus state slot %d", clientState.LatestSlot, consensusState.Slot)
	}

	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.client.Instantiate(clientState, consensusState); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Created light client %s at slot %d\n", stack.client.ID(), consensusState.Slot)
	return nil
}

func updateClient(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need the header file as the sole argument")
	}
	msg, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	header, _, err := client.DecodeClientMessage(msg)
	if err != nil {
		return err
	}
	if header == nil {
		return fmt.Errorf("%w: expected a header, use the misbehaviour command for misbehaviours", client.ErrInvalidClientMessage)
	}

	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	now := currentTime(ctx)
	if ctx.Bool(dryRunFlag.Name) {
		if err := stack.client.VerifyClientMessage(msg, now); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, "Header is valid")
		return nil
	}
	heights, err := stack.client.UpdateState(header, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Updated light client %s, consensus states written at %v\n", stack.client.ID(), heights)
	return nil
}

func submitMisbehaviour(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need the misbehaviour file as the sole argument")
	}
	msg, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	_, misbehaviour, err := client.DecodeClientMessage(msg)
	if err != nil {
		return err
	}
	if misbehaviour == nil {
		return fmt.Errorf("%w: expected a misbehaviour", client.ErrInvalidClientMessage)
	}

	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	found, err := stack.client.CheckForMisbehaviour(misbehaviour, currentTime(ctx))
	if err != nil {
		return err
	}
	if !found || ctx.Bool(dryRunFlag.Name) {
		fmt.Fprintf(ctx.App.Writer, "Misbehaviour found: %t\n", found)
		return nil
	}
	if err := stack.client.UpdateStateOnMisbehaviour(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Misbehaviour found, light client %s is frozen\n", stack.client.ID())
	return nil
}

func showStatus(ctx *cli.Context) error {
	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	c := stack.client
	status, err := c.Status()
	if err != nil {
		return err
	}
	clientState, err := c.ClientState()
	if err != nil {
		return err
	}
	timestamp, err := c.TimestampAtHeight(clientState.LatestSlot)
	if err != nil {
		return err
	}
	slots, err := stack.db.ConsensusSlots(c.ID())
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "Client:           %s\n", c.ID())
	fmt.Fprintf(w, "Status:           %s\n", status)
	fmt.Fprintf(w, "Chain id:         %d\n", clientState.ChainID)
	fmt.Fprintf(w, "Contract:         %s\n", clientState.IbcContractAddress.Hex())
	fmt.Fprintf(w, "Latest height:    %d\n", clientState.LatestSlot)
	fmt.Fprintf(w, "Latest timestamp: %s\n", time.Unix(0, int64(timestamp)).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Consensus states: %d", len(slots))
	if len(slots) > 0 {
		fmt.Fprintf(w, " (slots %d to %d)", slots[0], slots[len(slots)-1])
	}
	fmt.Fprintln(w)

	showDBStats(w, stack.db)
	log.Debug("Light client status", "client", c.ID(), "status", status, "latest", clientState.LatestSlot)
	return nil
}
