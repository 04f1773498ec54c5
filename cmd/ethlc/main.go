// Copyright 2014 The go-ethereum Authors
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

// ethlc is the command line interface of the Ethereum sync committee light client.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/sunyihoo/ethereum-light-client/cmd/utils"
	"github.com/sunyihoo/ethereum-light-client/internal/debug"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "ethlc" // Client identifier used in logs and the default data directory

func newApp() *cli.App {
	app := flags.NewApp("the Ethereum sync committee light client")
	app.Name = clientIdentifier
	app.Commands = []*cli.Command{
		// See clientcmd.go:
		initCommand,
		updateCommand,
		misbehaviourCommand,
		statusCommand,
		// See membershipcmd.go:
		verifyMembershipCommand,
		verifyNonMembershipCommand,
		// See config.go:
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Flags = flags.Merge(
		configFlags,
		utils.DatabaseFlags,
		[]cli.Flag{utils.MetricsEnabledFlag},
		debug.Flags,
	)
	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		if err := debug.Setup(ctx); err != nil {
			return err
		}
		if ctx.Bool(utils.MetricsEnabledFlag.Name) {
			log.Info("Enabling metrics collection")
			metrics.Enable()
		}
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if metrics.Enabled() {
			reportMetrics()
		}
		debug.Exit()
		return nil
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// reportMetrics logs the light client metrics collected by the command.
func reportMetrics() {
	metrics.DefaultRegistry.Each(func(name string, i interface{}) {
		if !strings.HasPrefix(name, "ethlc/") {
			return
		}
		switch m := i.(type) {
		case *metrics.Counter:
			log.Info("Metric", "name", name, "count", m.Snapshot().Count())
		case *metrics.Meter:
			log.Info("Metric", "name", name, "count", m.Snapshot().Count())
		case *metrics.Timer:
			s := m.Snapshot()
			log.Info("Metric", "name", name, "count", s.Count(), "mean", s.Mean(), "max", s.Max())
		}
	})
}
