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

package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runSetup(t *testing.T, args ...string) error {
	t.Helper()
	app := cli.NewApp()
	app.Flags = Flags
	app.Action = func(ctx *cli.Context) error {
		return Setup(ctx)
	}
	return app.Run(append([]string{"test"}, args...))
}

func TestSetupLogFile(t *testing.T) {
	defer log.SetDefault(log.Root())
	defer Exit()

	logFile := filepath.Join(t.TempDir(), "logs", "ethlc.log")
	require.NoError(t, runSetup(t, "--log.format", "json", "--log.file", logFile, "--verbosity", "2"))
	log.Info("suppressed message")
	log.Warn("light client warning", "slot", 80)
	Exit()

	blob, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"msg":"light client warning"`)
	assert.Contains(t, string(blob), `"slot":80`)
	assert.NotContains(t, string(blob), "suppressed message")
}

func TestSetupErrors(t *testing.T) {
	defer log.SetDefault(log.Root())

	require.Error(t, runSetup(t, "--log.format", "xml"))
	require.Error(t, runSetup(t, "--log.vmodule", "beacon=notalevel"))
	require.Error(t, runSetup(t, "--log.rotate"))
	require.NoError(t, runSetup(t, "--log.format", "logfmt", "--log.vmodule", "beacon/light/*=5"))
}

func TestSetupRotation(t *testing.T) {
	defer log.SetDefault(log.Root())
	defer Exit()

	logFile := filepath.Join(t.TempDir(), "ethlc.log")
	require.NoError(t, runSetup(t, "--log.format", "logfmt", "--log.file", logFile, "--log.rotate", "--verbosity", "3"))
	log.Info("rotated message", "client", "ethereum-0")
	Exit()

	blob, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "msg=\"rotated message\"")
	assert.Contains(t, string(blob), "client=ethereum-0")
}
