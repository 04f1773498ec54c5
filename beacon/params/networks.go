// Copyright 2016 The go-ethereum Authors
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

	"github.com/ethereum/go-ethereum/common"
)

var (
	MainnetSpec = ChainSpec{
		Name:                  "mainnet",
		GenesisValidatorsRoot: common.HexToHash("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95"),
		GenesisTime:           1606824023,
		Forks: ForkParameters{
			GenesisForkVersion: Version{0, 0, 0, 0},
			Altair:             Fork{Version: Version{1, 0, 0, 0}, Epoch: 74240},
			Bellatrix:          Fork{Version: Version{2, 0, 0, 0}, Epoch: 144896},
			Capella:            Fork{Version: Version{3, 0, 0, 0}, Epoch: 194048},
			Deneb:              Fork{Version: Version{4, 0, 0, 0}, Epoch: 269568},
		},
		SecondsPerSlot:               12,
		SlotsPerEpoch:                32,
		EpochsPerSyncCommitteePeriod: 256,
		MinSyncCommitteeParticipants: 1,
	}

	SepoliaSpec = ChainSpec{
		Name:                  "sepolia",
		GenesisValidatorsRoot: common.HexToHash("0xd8ea171f3c94aea21ebc42a1ed61052acf3f9209c00e4efbaaddac09ed9b8078"),
		GenesisTime:           1655733600,
		Forks: ForkParameters{
			GenesisForkVersion: Version{144, 0, 0, 105},
			Altair:             Fork{Version: Version{144, 0, 0, 112}, Epoch: 50},
			Bellatrix:          Fork{Version: Version{144, 0, 0, 113}, Epoch: 100},
			Capella:            Fork{Version: Version{144, 0, 0, 114}, Epoch: 56832},
			Deneb:              Fork{Version: Version{144, 0, 0, 115}, Epoch: 132608},
		},
		SecondsPerSlot:               12,
		SlotsPerEpoch:                32,
		EpochsPerSyncCommitteePeriod: 256,
		MinSyncCommitteeParticipants: 1,
	}

	HoleskySpec = ChainSpec{
		Name:                  "holesky",
		GenesisValidatorsRoot: common.HexToHash("0x9143aa7c615a7f7115e2b6aac319c03529df8242ae705fba9df39b79c59fa8b1"),
		GenesisTime:           1695902400,
		Forks: ForkParameters{
			GenesisForkVersion: Version{1, 1, 112, 0},
			Altair:             Fork{Version: Version{2, 1, 112, 0}, Epoch: 0},
			Bellatrix:          Fork{Version: Version{3, 1, 112, 0}, Epoch: 0},
			Capella:            Fork{Version: Version{4, 1, 112, 0}, Epoch: 256},
			Deneb:              Fork{Version: Version{5, 1, 112, 0}, Epoch: 29696},
		},
		SecondsPerSlot:               12,
		SlotsPerEpoch:                32,
		EpochsPerSyncCommitteePeriod: 256,
		MinSyncCommitteeParticipants: 1,
	}

	// MinimalSpec is the minimal preset with every fork active from genesis,
	// as used by local devnets. Genesis time and validators root are chain
	// specific and left zero.
	MinimalSpec = ChainSpec{
		Name: "minimal",
		Forks: ForkParameters{
			GenesisForkVersion: Version{0, 0, 0, 1},
			Altair:             Fork{Version: Version{1, 0, 0, 1}, Epoch: 0},
			Bellatrix:          Fork{Version: Version{2, 0, 0, 1}, Epoch: 0},
			Capella:            Fork{Version: Version{3, 0, 0, 1}, Epoch: 0},
			Deneb:              Fork{Version: Version{4, 0, 0, 1}, Epoch: 0},
		},
		SecondsPerSlot:               6,
		SlotsPerEpoch:                8,
		EpochsPerSyncCommitteePeriod: 8,
		MinSyncCommitteeParticipants: 1,
	}
)

// SpecByName returns one of the built-in network presets.
func SpecByName(name string) (ChainSpec, error) {
	switch name {
	case "mainnet":
		return MainnetSpec, nil
	case "sepolia":
		return SepoliaSpec, nil
	case "holesky":
		return HoleskySpec, nil
	case "minimal":
		return MinimalSpec, nil
	}
	return ChainSpec{}, fmt.Errorf("unknown network %q", name)
}
