// Command pavilion is the CLI entrypoint: it resolves a suite, drives each
// resulting run through build coordination and scheduler dispatch via the
// worker pool, and writes each run's result JSON. Its flag-driven
// subcommand shape (run / _run / cancel) follows cmd/runner/main.go's
// "flag.Parse, then dispatch" style, generalized from one fixed load-test
// flow into Pavilion's resolve-build-dispatch-collect pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pavilion-hpc/pavilion/catalog"
	"github.com/pavilion-hpc/pavilion/config"
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/result"
	"github.com/pavilion-hpc/pavilion/scheduler/local"
	"github.com/pavilion-hpc/pavilion/scheduler/slurm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pavilion <run|_run|cancel> [flags]")
		os.Exit(exitCodeFor(errkind.New(errkind.Configuration, "missing subcommand")))
	}

	workDir, cfg, err := resolveWorkDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pavilion: failed to initialize:", err)
		os.Exit(exitCodeFor(err))
	}

	cc, err := corectx.New(workDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pavilion: failed to initialize:", err)
		os.Exit(1)
	}
	cc.Config = cfg
	registerPlugins(cc)

	ctx := corectx.WithContext(context.Background(), cc)

	var cmdErr error
	switch os.Args[1] {
	case "run":
		cmdErr = runCommand(ctx, cc, os.Args[2:])
	case "_run":
		cmdErr = runEntrypoint(ctx, cc, os.Args[2:])
	case "cancel":
		cmdErr = cancelCommand(ctx, cc, os.Args[2:])
	default:
		cmdErr = errkind.New(errkind.Configuration, "unknown subcommand %q", os.Args[1])
	}

	if cmdErr != nil {
		cc.Log.Error(cmdErr, "pavilion command failed")
		os.Exit(exitCodeFor(cmdErr))
	}
}

// resolveWorkDir finds the shared-storage working directory: PAVILION_CONFIG
// names a Pavilion config file (spec §6) to load it from; PAV_WORKDIR
// overrides it directly, for callers (tests, the `_run` entrypoint's own
// child processes) that have no config file at hand. At least one must be
// set. The loaded config (nil when PAV_WORKDIR was used instead) carries the
// Results/Catalog defaults on to cc.Config.
func resolveWorkDir() (string, *config.Config, error) {
	if wd := os.Getenv("PAV_WORKDIR"); wd != "" {
		return wd, nil, nil
	}
	if cfgPath := os.Getenv("PAVILION_CONFIG"); cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return "", nil, err
		}
		return cfg.WorkDir, cfg, nil
	}
	return "", nil, errkind.New(errkind.Configuration, "neither PAVILION_CONFIG nor PAV_WORKDIR is set")
}

// registerPlugins installs every built-in capability into cc.Registry
// (spec §9: explicit registration, no reflection-based discovery).
func registerPlugins(cc *corectx.Context) {
	local.Register(cc.Registry)
	slurm.Register(cc.Registry)
	result.RegisterBuiltins(cc.Registry)
	catalog.RegisterBigQuery(cc.Registry)
	catalog.RegisterPostgres(cc.Registry)
}

// exitCodeFor maps an error's errkind.Kind to a non-zero process exit code
// (spec §6, "Exit codes from the top-level entrypoint"). Codes are stable
// identifiers, not meant to be exhaustive diagnostics in themselves.
func exitCodeFor(err error) int {
	kind, ok := errkind.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case errkind.Configuration:
		return 2
	case errkind.Resolution:
		return 3
	case errkind.Build:
		return 4
	case errkind.Scheduler:
		return 5
	case errkind.Runtime:
		return 6
	case errkind.Parse:
		return 7
	case errkind.Concurrency:
		return 8
	default:
		return 1
	}
}

func usageError(fs *flag.FlagSet, msg string) error {
	fs.Usage()
	return errkind.New(errkind.Configuration, "%s", msg)
}
