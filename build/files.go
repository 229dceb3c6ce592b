package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pavilion-hpc/pavilion/errkind"
)

// CopyExtraFiles copies each path in extraFiles into buildDir without ever
// treating it as an archive to extract (spec §4.3: "extra_files are never
// extracted, only copied").
func CopyExtraFiles(extraFiles []string, buildDir string) error {
	for _, src := range extraFiles {
		info, err := os.Stat(src)
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "statting extra_files entry %s", src)
		}
		dst := filepath.Join(buildDir, filepath.Base(src))
		if info.IsDir() {
			if err := copyDir(src, dst); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(src, dst, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

// CreateFiles writes create_files into buildDir: a mapping from path (which
// must stay inside buildDir) to an ordered sequence of lines, creating
// subdirectories as needed (spec §4.3).
func CreateFiles(createFiles map[string][]string, buildDir string) error {
	absRoot, err := filepath.Abs(buildDir)
	if err != nil {
		return errkind.Wrap(errkind.Build, err, "resolving build dir")
	}
	for rel, lines := range createFiles {
		target := filepath.Join(absRoot, rel)
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return errkind.Wrap(errkind.Build, err, "resolving create_files path %s", rel)
		}
		if !strings.HasPrefix(absTarget, absRoot+string(filepath.Separator)) && absTarget != absRoot {
			return errkind.New(errkind.Configuration, "create_files path %q escapes the build directory", rel)
		}
		if err := os.MkdirAll(filepath.Dir(absTarget), 0o755); err != nil {
			return errkind.Wrap(errkind.Build, err, "creating parent dir for %s", rel)
		}
		content := strings.Join(lines, "\n")
		if len(lines) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(absTarget, []byte(content), 0o644); err != nil {
			return errkind.Wrap(errkind.Build, err, "writing create_files entry %s", rel)
		}
	}
	return nil
}
