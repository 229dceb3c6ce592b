package main

import (
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavilion-hpc/pavilion/build"
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// buildScriptFrom translates a resolved TestRun's "build" section (module
// load/unload/swap, env, cmds) into a build.Script. Key names follow
// spec §4.3's own vocabulary for the same concepts.
func buildScriptFrom(spec map[string]interface{}) build.Script {
	var mods []build.ModuleOp
	for _, m := range asSliceOfMaps(spec["modules"]) {
		mods = append(mods, build.ModuleOp{
			Action:   asString(m["action"]),
			Name:     asString(m["name"]),
			SwapFrom: asString(m["swap_from"]),
		})
	}

	env := map[string]string{}
	var envKeys []string
	for k, v := range asMap(spec["env"]) {
		env[k] = asString(v)
		envKeys = append(envKeys, k)
	}

	return build.Script{
		Modules: mods,
		Env:     env,
		EnvKeys: envKeys,
		Cmds:    asStringSlice(spec["cmds"]),
	}
}

// coordinateBuild runs the Build Engine (spec §4.3) for one run: classify
// and fetch the source (if any), compute the content hash, acquire the
// build lock, and execute the build script exactly once per distinct
// hash — concurrent callers with the same hash block on Acquire and reuse
// the first builder's output.
func coordinateBuild(ctx context.Context, cc *corectx.Context, buildSpec map[string]interface{}) (string, error) {
	script := buildScriptFrom(buildSpec)

	src := asString(buildSpec["source"])
	extraFiles := asStringSlice(buildSpec["extra_files"])
	createFiles, _ := buildSpec["create_files"].(map[string]interface{})

	// The hash must cover source/extra/generated content (spec §4.3's Hash
	// input, Testable Property #1: "any single-bit change in any input
	// changes the hash"), so every one of those inputs is digested up
	// front, before the hash selects a directory and before anything is
	// staged into it.
	sourceBytes, sourceMTime, err := sourceDigest(src)
	if err != nil {
		return "", err
	}
	extraDigests, err := extraFileDigests(extraFiles)
	if err != nil {
		return "", err
	}
	generatedDigests := generatedFileDigests(createFiles)

	in := build.HashInput{
		ScriptText:     script.Normalized(),
		Specificity:    asString(buildSpec["specificity"]),
		SourceBytes:    sourceBytes,
		SourceMTime:    sourceMTime,
		ExtraFiles:     extraDigests,
		GeneratedFiles: generatedDigests,
	}
	hash := build.Compute(in)

	dir := filepath.Join(cc.WorkDir, "builds", hash)
	progressLog := filepath.Join(dir, "build.log")

	lock, err := build.Acquire(ctx, dir, progressLog, 0)
	if err != nil {
		return "", err
	}
	defer lock.Release()

	if finished(dir) {
		return dir, nil
	}

	if src != "" {
		if err := build.AcquireSource(src, dir); err != nil {
			return "", err
		}
	}
	if err := build.CopyExtraFiles(extraFiles, dir); err != nil {
		return "", err
	}
	if len(createFiles) > 0 {
		files := make(map[string][]string, len(createFiles))
		for k, v := range createFiles {
			files[k] = asStringSlice(v)
		}
		if err := build.CreateFiles(files, dir); err != nil {
			return "", err
		}
	}

	if err := build.Execute(ctx, dir, script.Compose(), progressLog); err != nil {
		return "", err
	}
	if err := markFinished(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// sourceDigest returns the hash material for src (spec §4.3: "the source
// file bytes or, for a source directory, the directory's most-recent
// modification timestamp"). An empty src (no build source configured)
// contributes nothing.
func sourceDigest(src string) (sum []byte, mtime string, err error) {
	if src == "" {
		return nil, "", nil
	}
	kind, err := build.Classify(src)
	if err != nil {
		return nil, "", err
	}
	if kind == build.KindDirectory {
		mtime, err := latestMTime(src)
		return nil, mtime, err
	}
	sum, err = sha256File(src)
	return sum, "", err
}

// latestMTime walks dir and returns the most recent modification time of
// any entry, RFC3339Nano-formatted so it sorts and compares as a string.
func latestMTime(dir string) (string, error) {
	var latest time.Time
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", errkind.Wrap(errkind.Build, err, "walking source directory %s for mtime", dir)
	}
	return latest.UTC().Format(time.RFC3339Nano), nil
}

// extraFileDigests hashes each extra_files entry's actual content (a
// directory's entries are walked and hashed individually), so two builds
// whose scripts match but whose extra files differ land in distinct build
// directories.
func extraFileDigests(paths []string) ([]build.FileDigest, error) {
	var out []build.FileDigest
	for _, src := range paths {
		info, err := os.Stat(src)
		if err != nil {
			return nil, errkind.Wrap(errkind.Build, err, "statting extra_files entry %s for hashing", src)
		}
		if !info.IsDir() {
			sum, err := sha256File(src)
			if err != nil {
				return nil, err
			}
			out = append(out, build.FileDigest{Path: filepath.Base(src), Sum: sum})
			continue
		}
		base := filepath.Base(src)
		err = filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			sum, err := sha256File(path)
			if err != nil {
				return err
			}
			out = append(out, build.FileDigest{Path: filepath.Join(base, rel), Sum: sum})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// generatedFileDigests hashes create_files' own literal content: unlike
// source and extra_files, this content never touches disk before the hash
// is computed, so it is digested directly from the resolved config.
func generatedFileDigests(createFiles map[string]interface{}) []build.FileDigest {
	var out []build.FileDigest
	for rel, v := range createFiles {
		lines := asStringSlice(v)
		content := strings.Join(lines, "\n")
		if len(lines) > 0 {
			content += "\n"
		}
		sum := sha256.Sum256([]byte(content))
		out = append(out, build.FileDigest{Path: rel, Sum: sum[:]})
	}
	return out
}

func sha256File(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.Build, err, "reading %s for hashing", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, errkind.Wrap(errkind.Build, err, "hashing %s", path)
	}
	return h.Sum(nil), nil
}

// finished/markFinished implement spec §6's `builds/<hash>.finished`
// marker: a sibling file to the build directory, distinct from the lock
// sentinel, so a reader can tell "built" from "being built" without racing
// the lock itself.
func finished(dir string) bool {
	_, err := os.Stat(dir + ".finished")
	return err == nil
}

func markFinished(dir string) error {
	if err := os.WriteFile(dir+".finished", []byte(time.Now().UTC().Format(time.RFC3339Nano)+"\n"), 0o644); err != nil {
		return errkind.Wrap(errkind.Build, err, "writing build finished marker for %s", dir)
	}
	return nil
}
