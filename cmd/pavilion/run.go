package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavilion-hpc/pavilion/build"
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/resolver"
	"github.com/pavilion-hpc/pavilion/rundir"
	"github.com/pavilion-hpc/pavilion/worker"
)

// runCommand implements `pavilion run`: resolve a suite file into its full
// set of TestRuns (spec §4.2), allocate a run directory per run (spec
// §4.4), coordinate each run's build (spec §4.3), and dispatch it through
// the worker pool (spec §4.7).
func runCommand(ctx context.Context, cc *corectx.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	suitePath := fs.String("suite", "", "path to a suite file")
	schedName := fs.String("scheduler", "local", "scheduler plugin to dispatch through")
	concurrency := fs.Int("concurrency", 4, "worker pool concurrency")
	repeat := fs.Int("repeat", 1, "repeat count per resolved run")
	binPath := fs.String("bin", os.Args[0], "path to the pavilion binary, exported as PAV_BIN to run-side scripts")
	if err := fs.Parse(args); err != nil {
		return errkind.Wrap(errkind.Configuration, err, "parsing run flags")
	}
	if *suitePath == "" {
		return usageError(fs, "run requires -suite")
	}

	data, err := os.ReadFile(*suitePath)
	if err != nil {
		return errkind.Wrap(errkind.Configuration, err, "reading suite file %s", *suitePath)
	}
	suite, err := resolver.LoadSuite(data)
	if err != nil {
		return err
	}

	host, _ := os.Hostname()
	runs, resolveErr := resolver.Resolve(suite, resolver.Options{
		SysVars: map[string]string{"sys_name": host},
	})
	if resolveErr != nil {
		// A test's own resolution failure aborts only that test (spec
		// §4.2); every other test in runs still proceeds below.
		cc.Log.Error(resolveErr, "some tests failed to resolve")
	}
	if len(runs) == 0 {
		if resolveErr != nil {
			return resolveErr
		}
		return nil
	}

	canceler := worker.NewCanceler()
	pool := worker.New(*concurrency)

	var series []worker.Series
	for _, run := range runs {
		run := run
		series = append(series, worker.Series{
			Label:  run.Label,
			Repeat: *repeat,
			Run: func(ctx context.Context, label string, index int) (rundir.State, error) {
				return dispatchOneRun(ctx, cc, canceler, *schedName, *binPath, run)
			},
		})
	}

	results := pool.Run(ctx, series)

	failures := 0
	for _, r := range results {
		cc.Log.Info("run finished", "label", r.Label, "index", r.Index, "state", string(r.State))
		if r.Err != nil {
			cc.Log.Error(r.Err, "run errored", "label", r.Label)
			failures++
		}
	}
	if failures > 0 {
		return errkind.New(errkind.Runtime, "%d/%d runs did not complete cleanly", failures, len(results))
	}
	return resolveErr
}

// dispatchOneRun allocates the run directory, runs the build engine (if
// the run has a build section), symlink-copies the build artifact in, and
// submits the run's kickoff script. It does not itself wait for the
// scheduled job: the `_run` entrypoint it dispatches to is what executes
// the test and writes the result (spec §6, run-side contract).
func dispatchOneRun(ctx context.Context, cc *corectx.Context, canceler *worker.Canceler, schedName, binPath string, run *resolver.TestRun) (rundir.State, error) {
	dir, err := rundir.Allocate(filepath.Join(cc.WorkDir, "test_runs"), sanitizeLabel(run.Label))
	if err != nil {
		return rundir.Error, err
	}

	cfgBytes, _ := json.MarshalIndent(map[string]interface{}(run.Config), "", "  ")
	if err := dir.WriteFile(rundir.ConfigFileName, cfgBytes); err != nil {
		return rundir.Error, err
	}

	if err := dir.Journal.Append(rundir.Resolved, "resolution complete"); err != nil {
		return rundir.Error, err
	}

	if run.Skip {
		_ = dir.Journal.Append(rundir.Skipped, "only_if/not_if evaluated false")
		_ = dir.MarkComplete()
		return rundir.Skipped, nil
	}

	var buildDir string
	if len(run.BuildSpec) > 0 {
		if err := dir.Journal.Append(rundir.BuildWait, "waiting for build lock"); err != nil {
			return rundir.Error, err
		}
		if err := dir.Journal.Append(rundir.Building, "building"); err != nil {
			return rundir.Error, err
		}
		bd, err := coordinateBuild(ctx, cc, run.BuildSpec)
		if err != nil {
			_ = dir.Journal.Append(rundir.Error, err.Error())
			return rundir.Error, err
		}
		buildDir = bd
		if err := dir.Journal.Append(rundir.BuildDone, "build artifact ready"); err != nil {
			return rundir.Error, err
		}
		if err := build.SymlinkCopy(buildDir, dir.Path, asStringSlice(run.BuildSpec["copy_files"])); err != nil {
			return rundir.Error, err
		}
	}

	params := requestParamsFrom(run.ScheduleSpec)
	handle, err := dispatchRun(ctx, cc, schedName, params, dir, binPath)
	if err != nil {
		return rundir.Error, err
	}

	sched, err := schedulerFor(cc, schedName)
	if err == nil {
		canceler.Track(run.Label, sched, handle, dir)
	}

	return rundir.Scheduled, nil
}

func sanitizeLabel(label string) string {
	return strings.ReplaceAll(label, "/", "_")
}
