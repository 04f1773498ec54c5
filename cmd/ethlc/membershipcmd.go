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
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/ethereum-light-client/cmd/utils"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	heightFlag = &cli.Uint64Flag{
		Name:     "height",
		Usage:    "Slot of the consensus state the proof is checked against",
		Required: true,
		Category: flags.MessageCategory,
	}
	proofFlag = &cli.StringFlag{
		Name:     "proof",
		Usage:    "JSON file holding the storage proof",
		Required: true,
		Category: flags.MessageCategory,
	}
	pathFlag = &cli.StringSliceFlag{
		Name:     "path",
		Usage:    "Hex encoded commitment path, only the first element is used",
		Required: true,
		Category: flags.MessageCategory,
	}
	valueFlag = &cli.StringFlag{
		Name:     "value",
		Usage:    "Hex encoded 32 byte commitment expected at the path",
		Required: true,
		Category: flags.MessageCategory,
	}

	verifyMembershipCommand = &cli.Command{
		Action:      verifyMembership,
		Name:        "verify-membership",
		Usage:       "Verify that a commitment is stored in the tracked contract",
		Flags:       flags.Merge(configFlags, utils.DatabaseFlags, []cli.Flag{heightFlag, proofFlag, pathFlag, valueFlag}),
		Description: `Checks a storage proof of the commitment at --path against the consensus state at --height.`,
	}
	verifyNonMembershipCommand = &cli.Command{
		Action:      verifyNonMembership,
		Name:        "verify-non-membership",
		Usage:       "Verify that no commitment is stored in the tracked contract",
		Flags:       flags.Merge(configFlags, utils.DatabaseFlags, []cli.Flag{heightFlag, proofFlag, pathFlag}),
		Description: `Checks a storage proof of the absence of --path against the consensus state at --height.`,
	}
)

// membershipArgs returns the proof and the decoded path given on the
// command line.
func membershipArgs(ctx *cli.Context) ([]byte, [][]byte, error) {
	proof, err := os.ReadFile(ctx.String(proofFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	var path [][]byte
	for _, elem := range ctx.StringSlice(pathFlag.Name) {
		dec, err := hexutil.Decode(elem)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid path element %q: %v", elem, err)
		}
		path = append(path, dec)
	}
	if len(path) == 0 {
		return nil, nil, errors.New("empty path")
	}
	return proof, path, nil
}

func verifyMembership(ctx *cli.Context) error {
	proof, path, err := membershipArgs(ctx)
	if err != nil {
		return err
	}
	value, err := hexutil.Decode(ctx.String(valueFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid value: %v", err)
	}
	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	height := ctx.Uint64(heightFlag.Name)
	if err := stack.client.VerifyMembership(height, proof, path, value); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Membership proven at height %d\n", height)
	return nil
}

func verifyNonMembership(ctx *cli.Context) error {
	proof, path, err := membershipArgs(ctx)
	if err != nil {
		return err
	}
	stack, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	height := ctx.Uint64(heightFlag.Name)
	if err := stack.client.VerifyNonMembership(height, proof, path); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Non-membership proven at height %d\n", height)
	return nil
}
