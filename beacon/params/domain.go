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

package params

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/ethereum-light-client/beacon/merkle"
)

// DomainType specifies the signatures specific use to avoid clashes across
// signing different data structures.
type DomainType [4]byte

var (
	DomainBeaconProposer              = DomainType{0, 0, 0, 0}
	DomainBeaconAttester              = DomainType{1, 0, 0, 0}
	DomainRandao                      = DomainType{2, 0, 0, 0}
	DomainDeposit                     = DomainType{3, 0, 0, 0}
	DomainVoluntaryExit               = DomainType{4, 0, 0, 0}
	DomainSelectionProof              = DomainType{5, 0, 0, 0}
	DomainAggregateAndProof           = DomainType{6, 0, 0, 0}
	DomainSyncCommittee               = DomainType{7, 0, 0, 0}
	DomainSyncCommitteeSelectionProof = DomainType{8, 0, 0, 0}
	DomainContributionAndProof        = DomainType{9, 0, 0, 0}
	DomainBLSToExecutionChange        = DomainType{10, 0, 0, 0}
	DomainApplicationMask             = DomainType{0, 0, 0, 1}
)

// Domain is a 32 byte signature domain.
type Domain [32]byte

func (d Domain) MarshalText() ([]byte, error) {
	return hexutil.Bytes(d[:]).MarshalText()
}

func (d Domain) String() string { return hexutil.Encode(d[:]) }

// ComputeForkDataRoot returns the hash tree root of the ForkData container
// {current_version, genesis_validators_root}.
func ComputeForkDataRoot(version Version, genesisValidatorsRoot common.Hash) common.Hash {
	var version32 merkle.Value
	copy(version32[:], version[:])
	return common.Hash(merkle.HashPair(version32, merkle.Value(genesisValidatorsRoot)))
}

// ComputeDomain returns the signature domain of the given type. A nil fork
// version defaults to the genesis fork version and a nil genesis validators
// root defaults to the zero hash.
func ComputeDomain(domainType DomainType, forkVersion *Version, genesisValidatorsRoot *common.Hash, genesisForkVersion Version) Domain {
	version := genesisForkVersion
	if forkVersion != nil {
		version = *forkVersion
	}
	var root common.Hash
	if genesisValidatorsRoot != nil {
		root = *genesisValidatorsRoot
	}
	forkDataRoot := ComputeForkDataRoot(version, root)

	var domain Domain
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain
}

// ComputeSigningRoot returns the hash tree root of the SigningData container
// {object_root, domain}.
func ComputeSigningRoot(objectRoot common.Hash, domain Domain) common.Hash {
	return common.Hash(merkle.HashPair(merkle.Value(objectRoot), merkle.Value(domain)))
}
