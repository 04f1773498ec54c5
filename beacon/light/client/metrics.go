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

package client

import "github.com/ethereum/go-ethereum/metrics"

const metricsPrefix = "ethlc/client/"

var (
	updateMeter       = metrics.NewRegisteredMeter(metricsPrefix+"update", nil)
	updateTimer       = metrics.NewRegisteredTimer(metricsPrefix+"update/time", nil)
	misbehaviourMeter = metrics.NewRegisteredMeter(metricsPrefix+"misbehaviour", nil)
	membershipMeter   = metrics.NewRegisteredMeter(metricsPrefix+"membership", nil)
	frozenCounter     = metrics.NewRegisteredCounter(metricsPrefix+"frozen", nil)
	rejectedMeter     = metrics.NewRegisteredMeter(metricsPrefix+"rejected", nil)
)
