package build

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// Execute runs a composed build script in place inside dir (spec §4.3:
// "Builds occur in place (so absolute rpaths remain valid)"), streaming
// combined output to logPath so a concurrent Acquire caller elsewhere can
// judge progress by its mtime. The last command's exit status is the
// build's result.
func Execute(ctx context.Context, dir, script, logPath string) error {
	scriptPath := filepath.Join(dir, ".build.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return errkind.Wrap(errkind.Build, err, "writing build script %s", scriptPath)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "creating build log %s", logPath)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, "/bin/sh", scriptPath)
	cmd.Dir = dir
	cmd.Stdout = io.MultiWriter(logFile)
	cmd.Stderr = io.MultiWriter(logFile)

	if err := cmd.Run(); err != nil {
		return errkind.Wrap(errkind.Build, err, "build script exited non-zero")
	}
	return lockdownTree(dir)
}

// lockdownTree makes every regular file read-only after a successful build
// (spec §4.3), so a later per-run symlink copy can safely share it across
// concurrent run directories.
func lockdownTree(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			if err := os.Chmod(path, info.Mode().Perm()&^0o222); err != nil {
				return errkind.Wrap(errkind.Build, err, "making %s read-only", path)
			}
		}
		return nil
	})
}
