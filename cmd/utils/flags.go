// Copyright 2015 The go-ethereum Authors
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

// Package utils contains internal helper functions for the ethlc command.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/ethereum-light-client/beacon/light"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/bls"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/store"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	// Database settings
	DataDirFlag = &flags.DirectoryFlag{
		Name:     "datadir",
		Usage:    "Data directory for the light client database",
		Value:    flags.DirectoryString(DefaultDataDir()),
		Category: flags.StoreCategory,
	}
	DBEngineFlag = &cli.StringFlag{
		Name:     "db.engine",
		Usage:    "Backing database implementation to use ('pebble', 'leveldb' or 'memory')",
		Value:    "",
		Category: flags.StoreCategory,
	}
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the database and state caches",
		Value:    store.DefaultConfig.Cache,
		Category: flags.StoreCategory,
	}
	HandlesFlag = &cli.IntFlag{
		Name:     "handles",
		Usage:    "Number of file handles allocated to the database",
		Value:    store.DefaultConfig.Handles,
		Category: flags.StoreCategory,
	}

	// Light client settings
	ClientIDFlag = &cli.StringFlag{
		Name:     "client",
		Usage:    "Identifier of the light client instance",
		Value:    DefaultClientID,
		Category: flags.ClientCategory,
	}
	VerifierFlag = &cli.StringFlag{
		Name:     "verifier",
		Usage:    "BLS signature verifier ('native' or 'blst')",
		Value:    DefaultVerifier,
		Category: flags.ClientCategory,
	}
	NowFlag = &cli.Uint64Flag{
		Name:     "now",
		Usage:    "Unix time in seconds used as the current time (default = system clock)",
		Category: flags.ClientCategory,
	}

	// Network presets used when creating a client
	MainnetFlag = &cli.BoolFlag{
		Name:     "mainnet",
		Usage:    "Ethereum mainnet",
		Category: flags.NetworkCategory,
	}
	SepoliaFlag = &cli.BoolFlag{
		Name:     "sepolia",
		Usage:    "Sepolia network: pre-configured proof-of-stake test network",
		Category: flags.NetworkCategory,
	}
	HoleskyFlag = &cli.BoolFlag{
		Name:     "holesky",
		Usage:    "Holesky network: pre-configured proof-of-stake test network",
		Category: flags.NetworkCategory,
	}
	MinimalFlag = &cli.BoolFlag{
		Name:     "minimal",
		Usage:    "Consensus minimal preset as used by local devnets",
		Category: flags.NetworkCategory,
	}
	ChainSpecFlag = &cli.StringFlag{
		Name:     "chainspec",
		Usage:    "Consensus layer config.yaml overriding the selected network preset",
		Category: flags.NetworkCategory,
	}
	ChainIDFlag = &cli.Uint64Flag{
		Name:     "chainid",
		Usage:    "Execution chain id of the tracked network (default = chain id of the preset)",
		Category: flags.NetworkCategory,
	}
	ContractFlag = &cli.StringFlag{
		Name:     "contract",
		Usage:    "Address of the tracked IBC contract",
		Category: flags.ClientCategory,
	}
	CommitmentSlotFlag = &flags.U256Flag{
		Name:     "commitment-slot",
		Usage:    "Storage slot of the commitment mapping in the tracked contract",
		Category: flags.ClientCategory,
	}
	ClientStateFlag = &cli.StringFlag{
		Name:     "client-state",
		Usage:    "JSON file holding the full initial client state (overrides the network flags)",
		Category: flags.ClientCategory,
	}

	// Metrics
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}

	NetworkFlags = []cli.Flag{
		MainnetFlag,
		SepoliaFlag,
		HoleskyFlag,
		MinimalFlag,
	}
	DatabaseFlags = []cli.Flag{
		DataDirFlag,
		DBEngineFlag,
		CacheFlag,
		HandlesFlag,
	}
)

const (
	DefaultClientID = "ethereum-0"
	DefaultVerifier = "native"
)

// chainIDs are the execution chain ids of the network presets.
var chainIDs = map[string]uint64{
	"mainnet": 1,
	"sepolia": 11155111,
	"holesky": 17000,
	"minimal": 1337,
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	if home := flags.HomeDir(); home != "" {
		return filepath.Join(home, ".ethlc")
	}
	return ""
}

// SetStoreConfig applies database related command line flags to the config.
func SetStoreConfig(ctx *cli.Context, cfg *store.Config) {
	if ctx.IsSet(DBEngineFlag.Name) {
		cfg.Backend = ctx.String(DBEngineFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.Cache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(HandlesFlag.Name) {
		cfg.Handles = ctx.Int(HandlesFlag.Name)
	}
}

// MakeVerifier returns the BLS verifier with the given name.
func MakeVerifier(name string) (light.BLSVerifier, error) {
	switch strings.ToLower(name) {
	case "native":
		return bls.Native{}, nil
	case "blst":
		return bls.Blst{}, nil
	}
	return nil, fmt.Errorf("unknown BLS verifier %q", name)
}

// MakeChainSpec returns the consensus parameters selected by the network
// flags, optionally overridden by a config.yaml, and the execution chain id.
func MakeChainSpec(ctx *cli.Context) (params.ChainSpec, uint64, error) {
	if err := flags.CheckExclusive(ctx, MainnetFlag, SepoliaFlag, HoleskyFlag, MinimalFlag); err != nil {
		return params.ChainSpec{}, 0, err
	}
	name := "mainnet"
	switch {
	case ctx.Bool(SepoliaFlag.Name):
		name = "sepolia"
	case ctx.Bool(HoleskyFlag.Name):
		name = "holesky"
	case ctx.Bool(MinimalFlag.Name):
		name = "minimal"
	}
	spec, err := params.SpecByName(name)
	if err != nil {
		return params.ChainSpec{}, 0, err
	}
	if file := ctx.String(ChainSpecFlag.Name); file != "" {
		if spec, err = params.LoadChainSpec(file, spec); err != nil {
			return params.ChainSpec{}, 0, err
		}
	}
	chainID := chainIDs[name]
	if ctx.IsSet(ChainIDFlag.Name) {
		chainID = ctx.Uint64(ChainIDFlag.Name)
	}
	return spec, chainID, nil
}

// MakeAddress parses the address of the tracked contract.
func MakeAddress(ctx *cli.Context) (common.Address, error) {
	hex := ctx.String(ContractFlag.Name)
	if !common.IsHexAddress(hex) {
		return common.Address{}, fmt.Errorf("invalid --%s %q", ContractFlag.Name, hex)
	}
	return common.HexToAddress(hex), nil
}
