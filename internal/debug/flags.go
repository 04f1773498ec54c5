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

// Package debug configures logging of the command line tools.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sunyihoo/ethereum-light-client/internal/flags"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	vmoduleFlag = &cli.StringFlag{
		Name:     "log.vmodule",
		Usage:    "Per-module verbosity: comma-separated list of <pattern>=<level> (e.g. beacon/light/*=5,cmd=4)",
		Category: flags.LoggingCategory,
	}
	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (json|logfmt|terminal)",
		Value:    "terminal",
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file in addition to stderr",
		Category: flags.LoggingCategory,
	}
	logRotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Rotate the log file",
		Category: flags.LoggingCategory,
	}
	logMaxSizeFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Maximum size in MBs of a rotated log file",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	logMaxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Maximum number of rotated log files to retain",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	logMaxAgeFlag = &cli.IntFlag{
		Name:     "log.maxage",
		Usage:    "Maximum number of days to retain a rotated log file",
		Value:    30,
		Category: flags.LoggingCategory,
	}
	logCompressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Compress rotated log files",
		Category: flags.LoggingCategory,
	}
)

// Flags holds all command-line flags required for logging.
var Flags = []cli.Flag{
	verbosityFlag,
	vmoduleFlag,
	logFormatFlag,
	logFileFlag,
	logRotateFlag,
	logMaxSizeFlag,
	logMaxBackupsFlag,
	logMaxAgeFlag,
	logCompressFlag,
}

// logFile is the open log file or rotating logger, closed by Exit.
var logFile io.WriteCloser

// Setup installs the root log handler configured by the CLI flags.
// It should be called as early as possible in the program.
func Setup(ctx *cli.Context) error {
	file, err := openLogFile(ctx)
	if err != nil {
		return err
	}
	handler, err := newHandler(ctx.String(logFormatFlag.Name), file)
	if err != nil {
		closeLogFile(file)
		return err
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))
	if err := glogger.Vmodule(ctx.String(vmoduleFlag.Name)); err != nil {
		closeLogFile(file)
		return fmt.Errorf("invalid --%s: %v", vmoduleFlag.Name, err)
	}
	Exit()
	logFile = file
	log.SetDefault(log.NewLogger(glogger))

	if file != nil {
		log.Info("Logging to file", "location", ctx.String(logFileFlag.Name), "rotate", ctx.Bool(logRotateFlag.Name))
	}
	return nil
}

// openLogFile opens the file given by --log.file, or returns nil if logs only
// go to stderr.
func openLogFile(ctx *cli.Context) (io.WriteCloser, error) {
	path := ctx.String(logFileFlag.Name)
	if path == "" {
		if ctx.Bool(logRotateFlag.Name) {
			return nil, fmt.Errorf("--%s requires --%s", logRotateFlag.Name, logFileFlag.Name)
		}
		return nil, nil
	}
	if err := validateLogLocation(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to initialize file logger: %v", err)
	}
	if ctx.Bool(logRotateFlag.Name) {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    ctx.Int(logMaxSizeFlag.Name),
			MaxBackups: ctx.Int(logMaxBackupsFlag.Name),
			MaxAge:     ctx.Int(logMaxAgeFlag.Name),
			Compress:   ctx.Bool(logCompressFlag.Name),
		}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

// newHandler creates the log handler of the given format writing to stderr
// and the log file. Terminal output is coloured only on a terminal, the log
// file never receives colour codes.
func newHandler(format string, file io.Writer) (slog.Handler, error) {
	output := io.Writer(os.Stderr)
	if file != nil {
		output = io.MultiWriter(os.Stderr, file)
	}
	switch format {
	case "json":
		return log.JSONHandler(output), nil
	case "logfmt":
		return log.LogfmtHandler(output), nil
	case "", "terminal":
		fd := os.Stderr.Fd()
		useColor := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
		if useColor && file == nil {
			return log.NewTerminalHandler(colorable.NewColorableStderr(), true), nil
		}
		return log.NewTerminalHandler(output, false), nil
	default:
		return nil, fmt.Errorf("unknown log format: %v", format)
	}
}

// Exit flushes and closes the log file, if any.
func Exit() {
	closeLogFile(logFile)
	logFile = nil
}

func closeLogFile(file io.WriteCloser) {
	if file != nil {
		file.Close()
	}
}

// validateLogLocation creates the log directory and checks it is writable.
func validateLogLocation(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("error creating the directory: %w", err)
	}
	f, err := os.CreateTemp(path, "ethlc-log-check")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}
