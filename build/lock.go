package build

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pavilion-hpc/pavilion/errkind"
)

const lockFileName = ".build.lock"

// Lock is the exclusive build-coordination sentinel of spec §4.3: an atomic
// create-exclusive on the file .build.lock inside the build's own directory
// (builds/<hash>/.build.lock), not a sibling file in the builds directory.
type Lock struct {
	path string
}

// tryAcquire attempts a single atomic create-exclusive on dir's sentinel
// file, returning (nil, false, nil) if another process already holds it.
func tryAcquire(dir string) (*Lock, bool, error) {
	path := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, false, nil
		}
		return nil, false, errkind.Wrap(errkind.Build, err, "creating build lock %s", path)
	}
	defer f.Close()
	return &Lock{path: path}, true, nil
}

// Release removes the sentinel file, ending this process's exclusive hold.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errkind.Wrap(errkind.Build, err, "releasing build lock %s", l.path)
	}
	return nil
}

// StallTimeout is the default "no progress" window of spec §4.3 ("default
// 30, configurable per test").
const StallTimeout = 30 * time.Second

// Acquire blocks until it holds dir's build lock, reclaiming it from a
// stalled holder. Progress is judged by progressLog's mtime advancing; if
// timeout elapses with no advance, the lock is considered abandoned by a
// dead or stuck process and is forcibly reclaimed (spec §4.3,
// "Concurrency contract").
func Acquire(ctx context.Context, dir, progressLog string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = StallTimeout
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errkind.Wrap(errkind.Build, err, "creating build directory %s", dir)
	}

	var lastMTime time.Time
	var lastChange time.Time

	poll := time.NewTicker(time.Second)
	defer poll.Stop()

	for {
		lock, ok, err := tryAcquire(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			return lock, nil
		}

		mtime, statErr := progressMTime(progressLog)
		now := time.Now()
		if statErr == nil {
			if lastChange.IsZero() || mtime.After(lastMTime) {
				lastMTime = mtime
				lastChange = now
			}
		} else if lastChange.IsZero() {
			lastChange = now
		}

		if now.Sub(lastChange) > timeout {
			if reclaimed, err := reclaim(dir); err != nil {
				return nil, err
			} else if reclaimed {
				lastChange = time.Time{}
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil, errkind.Wrap(errkind.Build, ctx.Err(), "waiting for build lock %s", dir)
		case <-poll.C:
		}
	}
}

func progressMTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// reclaim removes a sentinel presumed abandoned by a stalled holder, so the
// next tryAcquire in the caller's loop can succeed.
func reclaim(dir string) (bool, error) {
	path := filepath.Join(dir, lockFileName)
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return false, errkind.Wrap(errkind.Build, err, "reclaiming stalled build lock %s", path)
	}
	return true, nil
}
