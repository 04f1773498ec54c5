// Copyright 2024 The go-ethereum Authors
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

package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/protolambda/ztyp/tree"
	"github.com/protolambda/ztyp/view"
	"github.com/sunyihoo/ethereum-light-client/beacon/params"
)

// ExecutionPayloadHeader is the Deneb execution payload header embedded in
// light client headers.
//
// https://github.com/ethereum/consensus-specs/blob/dev/specs/deneb/beacon-chain.md#executionpayloadheader
type ExecutionPayloadHeader struct {
	ParentHash       common.Hash
	FeeRecipient     common.Address
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        ethtypes.Bloom
	PrevRandao       common.Hash
	BlockNumber      uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	BaseFeePerGas    *uint256.Int
	BlockHash        common.Hash
	TransactionsRoot common.Hash
	WithdrawalsRoot  common.Hash
	BlobGasUsed      uint64
	ExcessBlobGas    uint64
}

type executionPayloadHeaderJSON struct {
	ParentHash       *common.Hash    `json:"parent_hash"`
	FeeRecipient     *common.Address `json:"fee_recipient"`
	StateRoot        *common.Hash    `json:"state_root"`
	ReceiptsRoot     *common.Hash    `json:"receipts_root"`
	LogsBloom        *ethtypes.Bloom `json:"logs_bloom"`
	PrevRandao       *common.Hash    `json:"prev_randao"`
	BlockNumber      *common.Decimal `json:"block_number"`
	GasLimit         *common.Decimal `json:"gas_limit"`
	GasUsed          *common.Decimal `json:"gas_used"`
	Timestamp        *common.Decimal `json:"timestamp"`
	ExtraData        *hexutil.Bytes  `json:"extra_data"`
	BaseFeePerGas    *uint256.Int    `json:"base_fee_per_gas"`
	BlockHash        *common.Hash    `json:"block_hash"`
	TransactionsRoot *common.Hash    `json:"transactions_root"`
	WithdrawalsRoot  *common.Hash    `json:"withdrawals_root"`
	BlobGasUsed      *common.Decimal `json:"blob_gas_used"`
	ExcessBlobGas    *common.Decimal `json:"excess_blob_gas"`
}

// MarshalJSON encodes the header in beacon API format.
func (h ExecutionPayloadHeader) MarshalJSON() ([]byte, error) {
	baseFee := h.BaseFeePerGas
	if baseFee == nil {
		baseFee = new(uint256.Int)
	}
	return json.Marshal(&executionPayloadHeaderJSON{
		ParentHash:       &h.ParentHash,
		FeeRecipient:     &h.FeeRecipient,
		StateRoot:        &h.StateRoot,
		ReceiptsRoot:     &h.ReceiptsRoot,
		LogsBloom:        &h.LogsBloom,
		PrevRandao:       &h.PrevRandao,
		BlockNumber:      (*common.Decimal)(&h.BlockNumber),
		GasLimit:         (*common.Decimal)(&h.GasLimit),
		GasUsed:          (*common.Decimal)(&h.GasUsed),
		Timestamp:        (*common.Decimal)(&h.Timestamp),
		ExtraData:        (*hexutil.Bytes)(&h.ExtraData),
		BaseFeePerGas:    baseFee,
		BlockHash:        &h.BlockHash,
		TransactionsRoot: &h.TransactionsRoot,
		WithdrawalsRoot:  &h.WithdrawalsRoot,
		BlobGasUsed:      (*common.Decimal)(&h.BlobGasUsed),
		ExcessBlobGas:    (*common.Decimal)(&h.ExcessBlobGas),
	})
}

// UnmarshalJSON decodes an execution payload header. All fields are
// required.
func (h *ExecutionPayloadHeader) UnmarshalJSON(input []byte) error {
	var dec executionPayloadHeaderJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	const typ = "ExecutionPayloadHeader"
	if dec.ParentHash == nil {
		return errMissingField("parent_hash", typ)
	}
	h.ParentHash = *dec.ParentHash
	if dec.FeeRecipient == nil {
		return errMissingField("fee_recipient", typ)
	}
	h.FeeRecipient = *dec.FeeRecipient
	if dec.StateRoot == nil {
		return errMissingField("state_root", typ)
	}
	h.StateRoot = *dec.StateRoot
	if dec.ReceiptsRoot == nil {
		return errMissingField("receipts_root", typ)
	}
	h.ReceiptsRoot = *dec.ReceiptsRoot
	if dec.LogsBloom == nil {
		return errMissingField("logs_bloom", typ)
	}
	h.LogsBloom = *dec.LogsBloom
	if dec.PrevRandao == nil {
		return errMissingField("prev_randao", typ)
	}
	h.PrevRandao = *dec.PrevRandao
	if dec.BlockNumber == nil {
		return errMissingField("block_number", typ)
	}
	h.BlockNumber = uint64(*dec.BlockNumber)
	if dec.GasLimit == nil {
		return errMissingField("gas_limit", typ)
	}
	h.GasLimit = uint64(*dec.GasLimit)
	if dec.GasUsed == nil {
		return errMissingField("gas_used", typ)
	}
	h.GasUsed = uint64(*dec.GasUsed)
	if dec.Timestamp == nil {
		return errMissingField("timestamp", typ)
	}
	h.Timestamp = uint64(*dec.Timestamp)
	if dec.ExtraData == nil {
		return errMissingField("extra_data", typ)
	}
	if len(*dec.ExtraData) > params.MaxExtraDataBytes {
		return fmt.Errorf("extra_data too long: %d bytes, max %d", len(*dec.ExtraData), params.MaxExtraDataBytes)
	}
	h.ExtraData = *dec.ExtraData
	if dec.BaseFeePerGas == nil {
		return errMissingField("base_fee_per_gas", typ)
	}
	h.BaseFeePerGas = dec.BaseFeePerGas
	if dec.BlockHash == nil {
		return errMissingField("block_hash", typ)
	}
	h.BlockHash = *dec.BlockHash
	if dec.TransactionsRoot == nil {
		return errMissingField("transactions_root", typ)
	}
	h.TransactionsRoot = *dec.TransactionsRoot
	if dec.WithdrawalsRoot == nil {
		return errMissingField("withdrawals_root", typ)
	}
	h.WithdrawalsRoot = *dec.WithdrawalsRoot
	if dec.BlobGasUsed == nil {
		return errMissingField("blob_gas_used", typ)
	}
	h.BlobGasUsed = uint64(*dec.BlobGasUsed)
	if dec.ExcessBlobGas == nil {
		return errMissingField("excess_blob_gas", typ)
	}
	h.ExcessBlobGas = uint64(*dec.ExcessBlobGas)
	return nil
}

// HashTreeRoot implements tree.HTR.
func (h *ExecutionPayloadHeader) HashTreeRoot(hFn tree.HashFn) tree.Root {
	var baseFee view.Uint256View
	if h.BaseFeePerGas != nil {
		baseFee = view.Uint256View(*h.BaseFeePerGas)
	}
	var (
		feeRecipient = hFn.ByteVectorHTR(h.FeeRecipient[:])
		logsBloom    = hFn.ByteVectorHTR(h.LogsBloom[:])
		extraData    = hFn.ByteListHTR(h.ExtraData, params.MaxExtraDataBytes)
	)
	return hFn.HashTreeRoot(
		(*tree.Root)(&h.ParentHash),
		&feeRecipient,
		(*tree.Root)(&h.StateRoot),
		(*tree.Root)(&h.ReceiptsRoot),
		&logsBloom,
		(*tree.Root)(&h.PrevRandao),
		view.Uint64View(h.BlockNumber),
		view.Uint64View(h.GasLimit),
		view.Uint64View(h.GasUsed),
		view.Uint64View(h.Timestamp),
		&extraData,
		&baseFee,
		(*tree.Root)(&h.BlockHash),
		(*tree.Root)(&h.TransactionsRoot),
		(*tree.Root)(&h.WithdrawalsRoot),
		view.Uint64View(h.BlobGasUsed),
		view.Uint64View(h.ExcessBlobGas),
	)
}

// PayloadRoot returns the hash tree root of the header, the leaf proven by
// the execution branch of a light client header.
func (h *ExecutionPayloadHeader) PayloadRoot() common.Hash {
	return common.Hash(h.HashTreeRoot(tree.GetHashFn()))
}
