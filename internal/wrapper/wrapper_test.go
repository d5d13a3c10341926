package wrapper

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	got := Render("/opt/dumb_builds/app", "python3 $dumb_project_dir/main.py")
	want := "#!/usr/bin/env sh\n" +
		"export dumb_project_dir=\"/opt/dumb_builds/app\"\n" +
		"python3 $dumb_project_dir/main.py \"$@\"\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRender_QuotesProjectDir(t *testing.T) {
	got := Render(`/opt/my "odd" $dir`, "run")
	if !strings.Contains(got, `export dumb_project_dir="/opt/my \"odd\" \$dir"`) {
		t.Errorf("project dir not quoted safely:\n%s", got)
	}
}

func TestWrite(t *testing.T) {
	binDir := filepath.Join(t.TempDir(), "bin")

	path, err := Write(binDir, "app", "/opt/dumb_builds/app", "./run")
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if path != filepath.Join(binDir, "app") {
		t.Errorf("Write() path = %q", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat wrapper: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("wrapper mode = %v, want 0755", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	// Overwrite with a new command.
	if _, err := Write(binDir, "app", "/opt/dumb_builds/app", "./run2"); err != nil {
		t.Fatalf("second Write() error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "./run2 \"$@\"") {
		t.Errorf("wrapper not replaced:\n%s", data)
	}
}

func TestWrite_ForwardsArgumentsAndProjectDir(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	binDir := t.TempDir()
	projectDir := t.TempDir()

	path, err := Write(binDir, "echoer", projectDir, `printf '%s|' "$dumb_project_dir"`)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	out, err := exec.Command(path, "a b", "c").Output()
	if err != nil {
		t.Fatalf("run wrapper: %v", err)
	}
	if want := projectDir + "|a b|c|"; string(out) != want {
		t.Errorf("wrapper output = %q, want %q", out, want)
	}
}

func TestRemove(t *testing.T) {
	binDir := t.TempDir()

	removed, err := Remove(binDir, "ghost")
	if err != nil || removed {
		t.Errorf("Remove(missing) = %v, %v; want false, nil", removed, err)
	}

	if _, err := Write(binDir, "app", "/x", "run"); err != nil {
		t.Fatal(err)
	}
	removed, err = Remove(binDir, "app")
	if err != nil || !removed {
		t.Errorf("Remove(app) = %v, %v; want true, nil", removed, err)
	}
	if _, err := os.Stat(Path(binDir, "app")); !os.IsNotExist(err) {
		t.Error("wrapper still present after Remove")
	}
}

func TestIsOnPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/opt/tools/bin/:/bin")

	if ok, _ := IsOnPath("/opt/tools/bin"); !ok {
		t.Error("IsOnPath() = false for a listed dir")
	}
	ok, reason := IsOnPath("/usr/local/bin")
	if ok {
		t.Error("IsOnPath() = true for an unlisted dir")
	}
	if !strings.Contains(reason, `export PATH="/usr/local/bin":$PATH`) {
		t.Errorf("reason = %q", reason)
	}
}
