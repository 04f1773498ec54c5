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

package params

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

var knownForks = []string{"GENESIS", "ALTAIR", "BELLATRIX", "CAPELLA", "DENEB"}

// Version is a 4 byte fork version.
type Version [4]byte

var versionT = reflect.TypeOf(Version{})

func (v Version) MarshalText() ([]byte, error) {
	return hexutil.Bytes(v[:]).MarshalText()
}

func (v *Version) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(versionT, input, v[:])
}

func (v Version) String() string { return hexutil.Encode(v[:]) }

// Fork is a single scheduled fork activation.
type Fork struct {
	Version Version `json:"version"`
	Epoch   uint64  `json:"epoch"`
}

// ForkParameters is the fork schedule of a beacon chain, from the genesis
// fork up to Deneb.
type ForkParameters struct {
	GenesisForkVersion Version `json:"genesis_fork_version"`
	GenesisSlot        uint64  `json:"genesis_slot"`
	Altair             Fork    `json:"altair"`
	Bellatrix          Fork    `json:"bellatrix"`
	Capella            Fork    `json:"capella"`
	Deneb              Fork    `json:"deneb"`
}

// ComputeForkVersion returns the version of the latest fork activated at the
// given epoch, falling back to the genesis version.
func (f *ForkParameters) ComputeForkVersion(epoch uint64) Version {
	switch {
	case epoch >= f.Deneb.Epoch:
		return f.Deneb.Version
	case epoch >= f.Capella.Epoch:
		return f.Capella.Version
	case epoch >= f.Bellatrix.Epoch:
		return f.Bellatrix.Version
	case epoch >= f.Altair.Epoch:
		return f.Altair.Version
	default:
		return f.GenesisForkVersion
	}
}

// fork returns a pointer to the named scheduled fork.
func (f *ForkParameters) fork(name string) *Fork {
	switch name {
	case "ALTAIR":
		return &f.Altair
	case "BELLATRIX":
		return &f.Bellatrix
	case "CAPELLA":
		return &f.Capella
	case "DENEB":
		return &f.Deneb
	}
	return nil
}

// ChainSpec bundles the beacon chain parameters a light client is
// instantiated with.
type ChainSpec struct {
	Name                         string
	GenesisTime                  uint64
	GenesisValidatorsRoot        common.Hash
	Forks                        ForkParameters
	SecondsPerSlot               uint64
	SlotsPerEpoch                uint64
	EpochsPerSyncCommitteePeriod uint64
	MinSyncCommitteeParticipants uint64
}

// SlotsPerPeriod returns the number of slots in a sync committee period.
func (s *ChainSpec) SlotsPerPeriod() uint64 {
	return s.SlotsPerEpoch * s.EpochsPerSyncCommitteePeriod
}

// LoadChainSpec parses a beacon chain configuration file (config.yaml) on top
// of the given base spec. Fork versions and epochs and the timing/preset
// values found in the file override the base.
func LoadChainSpec(path string, base ChainSpec) (ChainSpec, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return ChainSpec{}, fmt.Errorf("failed to read beacon chain config file: %v", err)
	}
	return ParseChainSpec(file, base)
}

// ParseChainSpec is LoadChainSpec on an in-memory config.yaml.
func ParseChainSpec(file []byte, base ChainSpec) (ChainSpec, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(file, &nodes); err != nil {
		return ChainSpec{}, fmt.Errorf("failed to parse beacon chain config file: %v", err)
	}
	// Only scalar entries are relevant, newer configs also carry lists.
	config := make(map[string]string, len(nodes))
	for key, node := range nodes {
		if node.Kind == yaml.ScalarNode {
			config[key] = node.Value
		}
	}
	var (
		spec     = base
		versions = make(map[string]Version)
		epochs   = make(map[string]uint64)
	)
	for key, value := range config {
		if strings.HasSuffix(key, "_FORK_VERSION") {
			name := key[:len(key)-len("_FORK_VERSION")]
			v, err := hexutil.Decode(value)
			if err != nil || len(v) != len(Version{}) {
				return ChainSpec{}, fmt.Errorf("failed to decode hex fork id %q in beacon chain config file: %v", value, err)
			}
			versions[name] = Version(v)
		}
		if strings.HasSuffix(key, "_FORK_EPOCH") {
			name := key[:len(key)-len("_FORK_EPOCH")]
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return ChainSpec{}, fmt.Errorf("failed to parse epoch number %q in beacon chain config file: %v", value, err)
			}
			epochs[name] = v
		}
	}
	for name, version := range versions {
		if name == "GENESIS" {
			spec.Forks.GenesisForkVersion = version
			continue
		}
		epoch, ok := epochs[name]
		if !ok {
			return ChainSpec{}, fmt.Errorf("epoch number missing for fork %q in beacon chain config file", name)
		}
		fork := spec.Forks.fork(name)
		if fork == nil {
			log.Warn("Unknown fork in config.yaml", "fork name", name, "known forks", knownForks)
			continue
		}
		*fork = Fork{Version: version, Epoch: epoch}
	}
	for name := range epochs {
		if _, ok := versions[name]; !ok {
			return ChainSpec{}, fmt.Errorf("fork id missing for %q in beacon chain config file", name)
		}
	}
	for key, field := range map[string]*uint64{
		"SECONDS_PER_SLOT":                 &spec.SecondsPerSlot,
		"SLOTS_PER_EPOCH":                  &spec.SlotsPerEpoch,
		"EPOCHS_PER_SYNC_COMMITTEE_PERIOD": &spec.EpochsPerSyncCommitteePeriod,
		"MIN_SYNC_COMMITTEE_PARTICIPANTS":  &spec.MinSyncCommitteeParticipants,
	} {
		value, ok := config[key]
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return ChainSpec{}, fmt.Errorf("failed to parse %s %q in beacon chain config file: %v", key, value, err)
		}
		*field = v
	}
	if name, ok := config["CONFIG_NAME"]; ok {
		spec.Name = name
	}
	if err := spec.Forks.validate(); err != nil {
		return ChainSpec{}, err
	}
	return spec, nil
}

// validate checks that the fork epochs are scheduled in order.
func (f *ForkParameters) validate() error {
	epochs := []uint64{f.Altair.Epoch, f.Bellatrix.Epoch, f.Capella.Epoch, f.Deneb.Epoch}
	if !slices.IsSorted(epochs) {
		return fmt.Errorf("fork epochs out of order: %v", epochs)
	}
	return nil
}
