// Copyright 2017 The go-ethereum Authors
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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"unicode"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/naoina/toml"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/client"
	"github.com/sunyihoo/ethereum-light-client/beacon/light/store"
	"github.com/sunyihoo/ethereum-light-client/cmd/utils"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       flags.Merge(configFlags, utils.DatabaseFlags),
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}

	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}

	configFlags = []cli.Flag{
		configFileFlag,
		utils.ClientIDFlag,
		utils.VerifierFlag,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type clientConfig struct {
	ID       string // Identifier of the light client instance
	Verifier string // BLS verifier, native or blst
}

type ethlcConfig struct {
	DataDir string
	Store   store.Config
	Client  clientConfig
}

// defaultConfig returns the configuration used without a config file and
// command line overrides.
func defaultConfig() ethlcConfig {
	return ethlcConfig{
		DataDir: utils.DefaultDataDir(),
		Store:   store.DefaultConfig,
		Client: clientConfig{
			ID:       utils.DefaultClientID,
			Verifier: utils.DefaultVerifier,
		},
	}
}

func loadConfig(file string, cfg *ethlcConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the command
// line flags on top of it.
func makeConfig(ctx *cli.Context) (ethlcConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(utils.DataDirFlag.Name) {
		cfg.DataDir = ctx.String(utils.DataDirFlag.Name)
	}
	utils.SetStoreConfig(ctx, &cfg.Store)
	if ctx.IsSet(utils.ClientIDFlag.Name) {
		cfg.Client.ID = ctx.String(utils.ClientIDFlag.Name)
	}
	if ctx.IsSet(utils.VerifierFlag.Name) {
		cfg.Client.Verifier = ctx.String(utils.VerifierFlag.Name)
	}
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	dump.Write(out)
	return nil
}

// clientStack bundles the resources of an opened light client.
type clientStack struct {
	db     *store.Store
	client *client.Client
	lock   *flock.Flock
}

// openClient opens the database of the configured data directory and the
// light client in it. The data directory is locked until the stack is closed.
func openClient(ctx *cli.Context) (*clientStack, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	verifier, err := utils.MakeVerifier(cfg.Client.Verifier)
	if err != nil {
		return nil, err
	}
	stack := new(clientStack)
	if cfg.Store.Backend != store.BackendMemory {
		if cfg.DataDir == "" {
			return nil, errors.New("no data directory configured")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, err
		}
		// Lock the instance directory to prevent concurrent use by another instance.
		stack.lock = flock.New(filepath.Join(cfg.DataDir, "LOCK"))
		if locked, err := stack.lock.TryLock(); err != nil {
			return nil, err
		} else if !locked {
			return nil, fmt.Errorf("datadir already used by another process: %s", cfg.DataDir)
		}
		if cfg.Store.DataDir == "" {
			cfg.Store.DataDir = filepath.Join(cfg.DataDir, "clientdata")
		}
	}
	if stack.db, err = store.Open(&cfg.Store); err != nil {
		stack.Close()
		return nil, err
	}
	stack.client = client.New(cfg.Client.ID, stack.db, verifier)
	log.Debug("Opened light client", "client", cfg.Client.ID, "datadir", cfg.DataDir, "verifier", cfg.Client.Verifier)
	return stack, nil
}

// Close closes the database and releases the data directory.
func (s *clientStack) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Failed to close database", "err", err)
		}
	}
	if s.lock != nil {
		s.lock.Unlock()
	}
}
