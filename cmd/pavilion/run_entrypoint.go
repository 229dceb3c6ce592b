package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pavilion-hpc/pavilion/build"
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/result"
	"github.com/pavilion-hpc/pavilion/rundir"
)

// runEntrypoint implements `pavilion _run <id>`: the allocation-side
// process a scheduler's kickoff script invokes once per run it carries
// (spec §6, "Run-side environment contract"). It reads PAV_CONFIG_FILE
// (set by the kickoff script to the run's own config.yaml), executes the
// run's composed script in the run directory, drives the Result Pipeline
// (spec §4.6) to produce result.json, and exports the result to any
// configured result sink / series catalog mirror (spec §4.6/§4.8) before
// marking the run complete.
func runEntrypoint(ctx context.Context, cc *corectx.Context, args []string) error {
	if len(args) != 1 {
		return errkind.New(errkind.Configuration, "_run requires exactly one argument: the run id")
	}
	id := args[0]

	configPath := os.Getenv("PAV_CONFIG_FILE")
	if configPath == "" {
		return errkind.New(errkind.Configuration, "PAV_CONFIG_FILE is unset; _run must be invoked by a kickoff script")
	}
	runPath := filepath.Dir(configPath)

	dir := &rundir.Dir{ID: id, Path: runPath, Journal: rundir.Open(filepath.Join(runPath, rundir.StatusFileName))}

	cfgBytes, err := os.ReadFile(configPath)
	if err != nil {
		return errkind.Wrap(errkind.Configuration, err, "reading run config %s", configPath)
	}
	var config map[string]interface{}
	if err := json.Unmarshal(cfgBytes, &config); err != nil {
		return errkind.Wrap(errkind.Configuration, err, "parsing run config %s", configPath)
	}

	if err := dir.Journal.Append(rundir.Running, "executing run script"); err != nil {
		return err
	}

	started := time.Now().UTC()
	script := build.Script{Cmds: asStringSlice(config["cmds"])}
	if err := os.WriteFile(dir.ScriptPath(), []byte(script.Compose()), 0o755); err != nil {
		return errkind.Wrap(errkind.Runtime, err, "writing run script")
	}

	returnValue := runScript(ctx, dir)
	finished := time.Now().UTC()

	if err := dir.Journal.Append(rundir.ResultsParsing, "running result pipeline"); err != nil {
		return err
	}

	pipeline := result.Pipeline{
		WorkDir:  dir.Path,
		Registry: cc.Registry,
		Parsers:  parserConfigsFrom(config["result_parse"]),
		Evaluate: keyExprsFrom(config["result_evaluate"]),
	}
	base := result.Result{
		Name:        asString(config["name"]),
		ID:          id,
		Created:     started,
		Started:     started,
		Finished:    finished,
		DurationSec: finished.Sub(started).Seconds(),
		ReturnValue: returnValue,
	}
	res, err := pipeline.Run(base)
	if err != nil {
		return err
	}

	exportResult(ctx, cc, config, res.Name, res)

	resBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errkind.Wrap(errkind.Parse, err, "marshaling result.json")
	}
	if err := dir.WriteFile(rundir.ResultFileName, resBytes); err != nil {
		return err
	}

	finalState := rundir.Complete
	if res.Result != "PASS" {
		finalState = rundir.Failed
	}
	if err := dir.Journal.Append(finalState, "result: "+res.Result); err != nil {
		return err
	}
	return dir.MarkComplete()
}

// runScript executes the run directory's composed script in place and
// returns its exit status, treating a failure to even start the process as
// exit code 1 rather than aborting the pipeline (spec §4.6's default
// result semantics need a return_value regardless).
func runScript(ctx context.Context, dir *rundir.Dir) int {
	logFile, err := os.Create(dir.LogPath())
	if err != nil {
		return 1
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, "/bin/sh", dir.ScriptPath())
	cmd.Dir = dir.Path
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}
