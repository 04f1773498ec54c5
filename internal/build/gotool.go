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

package build

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// GoToolchain runs the go command of a Go installation, optionally
// cross-compiling.
type GoToolchain struct {
	Root string // GOROOT, defaults to the running toolchain

	// Cross-compilation target, empty for the host.
	GOARCH string
	GOOS   string
	CC     string
}

// Go creates an invocation of the go command. The blst bindings are built in
// portable mode so binaries run on any CPU of the target architecture.
func (g *GoToolchain) Go(command string, args ...string) *exec.Cmd {
	if g.Root == "" {
		g.Root = runtime.GOROOT()
	}
	tool := exec.Command(filepath.Join(g.Root, "bin", "go"), append([]string{command}, args...)...) // nolint: gosec
	tool.Env = append(inheritedEnv(), g.env()...)
	return tool
}

// env returns the variables selecting the toolchain and the build target.
func (g *GoToolchain) env() []string {
	env := []string{"GOROOT=" + g.Root, "CGO_CFLAGS=-O2 -g -D__BLST_PORTABLE__"}
	if g.GOARCH != "" && g.GOARCH != runtime.GOARCH {
		env = append(env, "CGO_ENABLED=1", "GOARCH="+g.GOARCH)
	}
	if g.GOOS != "" && g.GOOS != runtime.GOOS {
		env = append(env, "GOOS="+g.GOOS)
	}
	cc := g.CC
	if cc == "" {
		cc = os.Getenv("CC")
	}
	if cc != "" {
		env = append(env, "CC="+cc)
	}
	return env
}

// inheritedEnv returns the process environment without the variables set by
// the toolchain itself.
func inheritedEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		name, _, _ := strings.Cut(e, "=")
		switch name {
		case "GOROOT", "GOARCH", "GOOS", "GOBIN", "CC", "CGO_CFLAGS":
			continue
		}
		env = append(env, e)
	}
	return env
}
