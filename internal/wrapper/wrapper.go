// Package wrapper manages the executable entry points written to the bin
// directory for each installed package.
//
// A wrapper is a small sh script:
//
//	#!/usr/bin/env sh
//	export dumb_project_dir="/opt/dumb_builds/app"
//	python3 $dumb_project_dir/main.py "$@"
//
// The configured command is emitted verbatim so it may reference
// $dumb_project_dir.
package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// ProjectDirVar is the environment variable holding the install directory.
const ProjectDirVar = "dumb_project_dir"

const shebang = "#!/usr/bin/env sh"

// Path returns the wrapper location for name in binDir.
func Path(binDir, name string) string {
	return filepath.Join(binDir, name)
}

// Render returns the script text for a package installed in projectDir.
func Render(projectDir, command string) string {
	var b strings.Builder
	b.WriteString(shebang + "\n")
	fmt.Fprintf(&b, "export %s=%s\n", ProjectDirVar, quote(projectDir))
	fmt.Fprintf(&b, "%s \"$@\"\n", strings.TrimSpace(command))
	return b.String()
}

// quote wraps s in double quotes for sh, escaping the characters that stay
// special inside them.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}

// Write creates or replaces the wrapper for name and makes it executable.
// It returns the wrapper path.
func Write(binDir, name, projectDir, command string) (string, error) {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrFilesystem, "cannot create bin dir %s", binDir)
	}

	path := Path(binDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Render(projectDir, command)), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrFilesystem, "write wrapper %s", path)
	}
	// WriteFile applies the umask; the wrapper must be world-executable.
	if err := os.Chmod(tmp, 0755); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, errors.ErrFilesystem, "chmod wrapper %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, errors.ErrFilesystem, "install wrapper %s", path)
	}

	logger := logging.GetLogger("wrapper")
	logger.Debug().Str("path", path).Msg("Wrote wrapper")
	return path, nil
}

// Remove deletes the wrapper for name. It reports whether anything was
// removed; a missing wrapper is not an error.
func Remove(binDir, name string) (bool, error) {
	path := Path(binDir, name)
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFilesystem, "stat %s", path)
	}
	if info.IsDir() {
		return false, errors.Newf(errors.ErrFilesystem, "%s is a directory, not a wrapper", path)
	}
	if err := os.Remove(path); err != nil {
		return false, errors.Wrapf(err, errors.ErrFilesystem, "remove %s", path)
	}
	return true, nil
}

// IsOnPath reports whether binDir is listed in PATH. On failure the reason
// carries the export line to fix it.
func IsOnPath(binDir string) (bool, string) {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if filepath.Clean(dir) == filepath.Clean(binDir) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("add the bin directory to PATH:\n  export PATH=%q:$PATH", binDir)
}
