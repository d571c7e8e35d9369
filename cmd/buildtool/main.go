// buildtool is a CLI utility for inspecting Build engine GRP archives and
// reconstructing level geometry from their maps.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/buildgeo/internal/config"
	"github.com/Faultbox/buildgeo/internal/logger"
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	run   func(env *env, args []string) error
}

// env carries what every command needs.
type env struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

var commands = map[string]command{
	"info":    {"info <file.grp>", cmdInfo},
	"list":    {"list [-n N] <file.grp> [pattern]", cmdList},
	"extract": {"extract <file.grp> <lump|pattern> [output_dir]", cmdExtract},
	"tiles":   {"tiles [file.grp]", cmdTiles},
	"tile":    {"tile [file.grp] <id> <out.bmp|out.png>", cmdTile},
	"map":     {"map [file.grp] [level.map]", cmdMap},
	"meshes":  {"meshes [-v] [file.grp] [level.map]", cmdMeshes},
}

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	e := &env{cfg: cfg, log: logger.Log, out: os.Stdout}
	if err := run(e, args); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

// run dispatches one command. Usage problems print the command's usage line
// and return errUsage.
func run(e *env, args []string) error {
	name := args[0]
	switch name {
	case "help", "-h", "--help":
		printUsage(e.out)
		return nil
	case "ls":
		name = "list"
	case "x":
		name = "extract"
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage(os.Stderr)
		return errUsage
	}

	err := cmd.run(e, args[1:])
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "Usage: buildtool %s\n", cmd.usage)
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `buildtool - Build engine archive and level geometry utility

Usage:
  buildtool [flags] <command> [options]

Commands:
  info <file.grp>                        Show archive information
  list <file.grp> [pattern]              List lumps (optional glob pattern)
  extract <file.grp> <lump> [output]     Extract lump(s) to directory
  tiles [file.grp]                       List tile ids and sizes
  tile [file.grp] <id> <out.bmp|png>     Export one tile as an image
  map [file.grp] [level.map]             Show map statistics
  meshes [file.grp] [level.map]          Build level geometry and report meshes

Archive and map arguments default to data.grp_paths and data.map from the
config file.

Flags:
  -config <path>        Config file
  -debug                Debug logging
  -workers <n>          Sectors built in parallel
  -slope-divisor <f>    Heinum divisor for sloped surfaces
  -ceiling-slopes       Honor ceiling slope flags

Examples:
  buildtool info DUKE3D.GRP
  buildtool list DUKE3D.GRP "*.map"
  buildtool tile DUKE3D.GRP 0 tile0000.png
  buildtool -workers 4 meshes DUKE3D.GRP E1L1.MAP
`)
}
