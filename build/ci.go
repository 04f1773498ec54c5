// Copyright 2016 The go-ethereum Authors
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

//go:build none
// +build none

/*
The ci command is called from Continuous Integration scripts.

Usage: go run build/ci.go <command> <command flags/arguments>

Available commands are:

	install    [ -arch architecture ] [ -cc compiler ] [ -static ] [ packages... ] -- builds packages and executables
	test       [ -coverage ] [ -race ] [ -short ] [ packages... ]                   -- runs the tests
	lint                                                                           -- runs go vet and checks formatting
	check_tidy                                                                     -- verifies that go.mod and go.sum are tidy

For all commands, -n prevents execution of external programs (dry run mode).
*/
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/sunyihoo/ethereum-light-client/internal/build"
)

var GOBIN, _ = filepath.Abs(filepath.Join("build", "bin"))

func executablePath(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(GOBIN, name)
}

func main() {
	log.SetFlags(log.Lshortfile)

	if !build.FileExist(filepath.Join("build", "ci.go")) {
		log.Fatal("this script must be run from the root of the repository")
	}
	if len(os.Args) < 2 {
		log.Fatal("need subcommand as first argument")
	}
	switch os.Args[1] {
	case "install":
		doInstall(os.Args[2:])
	case "test":
		doTest(os.Args[2:])
	case "lint":
		doLint(os.Args[2:])
	case "check_tidy":
		doCheckTidy()
	default:
		log.Fatal("unknown command ", os.Args[1])
	}
}

// Compiling

func doInstall(cmdline []string) {
	var (
		arch       = flag.String("arch", "", "Architecture to cross build for")
		cc         = flag.String("cc", "", "C compiler to cross build with")
		staticlink = flag.Bool("static", false, "Create statically-linked executable")
	)
	flag.CommandLine.Parse(cmdline)
	env := build.Env()

	tc := build.GoToolchain{GOARCH: *arch, CC: *cc}
	gobuild := tc.Go("build", buildFlags(env, *staticlink, []string{"urfave_cli_no_docs"})...)
	gobuild.Args = append(gobuild.Args, "-trimpath", "-v")

	// Default to building all executables under cmd.
	packages := flag.Args()
	if len(packages) == 0 {
		packages = build.FindMainPackages("./cmd")
	}
	for _, pkg := range packages {
		args := slices.Clone(gobuild.Args)
		args = append(args, "-o", executablePath(path.Base(pkg)), pkg)
		build.MustRun(&exec.Cmd{Path: gobuild.Path, Args: args, Env: gobuild.Env})
	}
}

// buildFlags returns the go tool flags for building, embedding the git
// commit into the version package.
func buildFlags(env build.Environment, staticLinking bool, buildTags []string) (flags []string) {
	var ld []string
	ld = append(ld, "--buildid=none")
	if env.Commit != "" {
		ld = append(ld, "-X", "github.com/sunyihoo/ethereum-light-client/internal/version.gitCommit="+env.Commit)
		ld = append(ld, "-X", "github.com/sunyihoo/ethereum-light-client/internal/version.gitDate="+env.Date)
	}
	// Strip DWARF on darwin.
	if runtime.GOOS == "darwin" {
		ld = append(ld, "-s")
	}
	if runtime.GOOS == "linux" {
		extld := []string{"-Wl,--build-id=none,--strip-all"}
		if staticLinking {
			extld = append(extld, "-static")
			// Under static linking, use of certain glibc features must be
			// disabled to avoid shared library dependencies.
			buildTags = append(buildTags, "osusergo", "netgo")
		}
		ld = append(ld, "-extldflags", "'"+strings.Join(extld, " ")+"'")
	}
	flags = append(flags, "-ldflags", strings.Join(ld, " "))
	if len(buildTags) > 0 {
		flags = append(flags, "-tags", strings.Join(buildTags, ","))
	}
	return flags
}

// Running The Tests

func doTest(cmdline []string) {
	var (
		coverage = flag.Bool("coverage", false, "Whether to record code coverage")
		race     = flag.Bool("race", false, "Execute the race detector")
		short    = flag.Bool("short", false, "Pass the 'short'-flag to go test")
		verbose  = flag.Bool("v", false, "Whether to log verbosely")
	)
	flag.CommandLine.Parse(cmdline)

	var tc build.GoToolchain
	gotest := tc.Go("test", "-tags=urfave_cli_no_docs", "-p", "1")
	if *coverage {
		gotest.Args = append(gotest.Args, "-covermode=atomic", "-cover")
	}
	if *verbose {
		gotest.Args = append(gotest.Args, "-v")
	}
	if *race {
		gotest.Args = append(gotest.Args, "-race")
	}
	if *short {
		gotest.Args = append(gotest.Args, "-short")
	}
	packages := []string{"./..."}
	if len(flag.CommandLine.Args()) > 0 {
		packages = flag.CommandLine.Args()
	}
	gotest.Args = append(gotest.Args, packages...)
	build.MustRun(gotest)
}

// doLint runs go vet and fails if any file needs formatting.
func doLint(cmdline []string) {
	flag.CommandLine.Parse(cmdline)
	packages := []string{"./..."}
	if len(flag.CommandLine.Args()) > 0 {
		packages = flag.CommandLine.Args()
	}
	var tc build.GoToolchain
	build.MustRun(tc.Go("vet", append([]string{"-tags=urfave_cli_no_docs"}, packages...)...))

	gofmt := exec.Command(filepath.Join(tc.Root, "bin", "gofmt"), "-l", ".")
	out, err := gofmt.Output()
	if err != nil {
		log.Fatal("gofmt failed: ", err)
	}
	var unformatted []string
	for _, file := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if file != "" && !strings.HasPrefix(file, "_") {
			unformatted = append(unformatted, file)
		}
	}
	if len(unformatted) > 0 {
		log.Fatalf("files need formatting:\n%s", strings.Join(unformatted, "\n"))
	}
	log.Println("Lint checks passed.")
}

// doCheckTidy asserts that the Go modules files are tidied already.
func doCheckTidy() {
	targets := []string{"go.mod", "go.sum"}

	before := make(map[string][]byte)
	for _, target := range targets {
		data, err := os.ReadFile(target)
		if err != nil {
			log.Fatalf("failed to read %s: %v", target, err)
		}
		before[target] = data
	}
	var tc build.GoToolchain
	build.MustRun(tc.Go("mod", "tidy"))

	var changed bool
	for _, target := range targets {
		after, err := os.ReadFile(target)
		if err != nil {
			log.Fatalf("failed to read %s: %v", target, err)
		}
		if !bytes.Equal(before[target], after) {
			log.Printf("%s is not tidy", target)
			changed = true
			// Restore the original content.
			if err := os.WriteFile(target, before[target], 0644); err != nil {
				log.Fatalf("failed to restore %s: %v", target, err)
			}
		}
	}
	if changed {
		log.Fatal("go.mod or go.sum need tidying, run 'go mod tidy'")
	}
	log.Println("No untidy module files detected.")
}
