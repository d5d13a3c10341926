package installer

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/dumbinstall/internal/config"
	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/gitrepo"
	"github.com/blackwell-systems/dumbinstall/internal/lock"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/store"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

// fakeRemote clones by copying a fixture tree and lets tests script
// UpdateAtPath.
type fakeRemote struct {
	fixture  string
	cloned   []string
	update   func(path string) gitrepo.Result
	updated  []string
	hostname string
}

func (f *fakeRemote) IsAvailable() bool { return true }

func (f *fakeRemote) ResolveURL(locator string) string {
	return "https://" + f.hostname + "/" + locator
}

func (f *fakeRemote) Clone(locator, dest string) gitrepo.Result {
	f.cloned = append(f.cloned, locator)
	if f.fixture == "" {
		return gitrepo.Result{FailureMessage: gitrepo.MsgRepoNotFound, RawMessage: "remote: Repository not found."}
	}
	if err := copyDir(f.fixture, dest); err != nil {
		return gitrepo.Result{FailureMessage: err.Error()}
	}
	return gitrepo.Result{Success: true}
}

func (f *fakeRemote) UpdateAtPath(path string) gitrepo.Result {
	f.updated = append(f.updated, path)
	if f.update == nil {
		return gitrepo.Result{FailureMessage: gitrepo.MsgUpToDate}
	}
	return f.update(path)
}

// fakeRegistry keeps rows in memory.
type fakeRegistry struct {
	rows    map[string]*store.Install
	touched []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{rows: map[string]*store.Install{}}
}

func (r *fakeRegistry) UpsertInstall(in *store.Install) error {
	cp := *in
	r.rows[in.Name] = &cp
	return nil
}

func (r *fakeRegistry) TouchInstall(name string, at time.Time) error {
	r.touched = append(r.touched, name)
	return nil
}

func (r *fakeRegistry) GetInstall(name string) (*store.Install, error) {
	if row, ok := r.rows[name]; ok {
		return row, nil
	}
	return nil, store.ErrNotFound
}

func (r *fakeRegistry) DeleteInstall(name string) error {
	delete(r.rows, name)
	return nil
}

type env struct {
	root     string
	binDir   string
	lockDir  string
	remote   *fakeRemote
	registry *fakeRegistry
	in       *Installer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{
		root:     filepath.Join(base, "opt", "dumb_builds"),
		binDir:   filepath.Join(base, "bin"),
		lockDir:  filepath.Join(base, "locks"),
		remote:   &fakeRemote{hostname: "github.com"},
		registry: newFakeRegistry(),
	}
	e.in = New(Options{
		InstallRoot: e.root,
		BinDir:      e.binDir,
		LockDir:     e.lockDir,
		Git:         e.remote,
		Registry:    e.registry,
	})
	return e
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func descriptor(name string, extra string) string {
	return fmt.Sprintf("[build]\nexecutable_name = %q\ncommand = \"sh $dumb_project_dir/run.sh\"\n%s", name, extra)
}

// localProject creates a project named app under a temp dir.
func localProject(t *testing.T, extra string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "src", "app")
	writeFiles(t, src, map[string]string{
		config.BuildFileName: descriptor("app", extra),
		"run.sh":             "echo app\n",
		"lib/util.sh":        "util() { :; }\n",
		"lib/data/table.txt": "1 2 3\n",
	})
	return src
}

type fileState struct {
	mod  time.Time
	size int64
}

// snapshot records every entry under root with its mtime and size.
func snapshot(t *testing.T, root string) map[string]fileState {
	t.Helper()
	out := map[string]fileState{}
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = fileState{mod: info.ModTime(), size: info.Size()}
		return nil
	}))
	return out
}

func readProvenanceJSON(t *testing.T, dir string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(provenance.Path(dir))
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func TestInstallLocal(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")

	res, err := e.in.Install(src, false)
	require.NoError(t, err)

	installDir := filepath.Join(e.root, "app")
	assert.Equal(t, "app", res.Name)
	assert.Equal(t, provenance.ChannelLocal, res.Channel)
	assert.Equal(t, installDir, res.InstallDir)
	assert.Equal(t, filepath.Join(e.binDir, "app"), res.WrapperPath)

	for _, rel := range []string{config.BuildFileName, "run.sh", "lib/util.sh", "lib/data/table.txt"} {
		want, err := os.ReadFile(filepath.Join(src, rel))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(installDir, rel))
		require.NoError(t, err, rel)
		assert.Equal(t, want, got, rel)
	}

	assert.Equal(t, map[string]interface{}{
		"is_git_install": false,
		"source_path":    src,
	}, readProvenanceJSON(t, installDir))

	info, err := os.Stat(res.WrapperPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	row := e.registry.rows["app"]
	require.NotNil(t, row)
	assert.Equal(t, "local", row.Channel)
	assert.Equal(t, src, row.Source)

	_, err = os.Stat(lock.Path(e.lockDir, "app"))
	assert.True(t, os.IsNotExist(err), "lock must be released")
}

func TestInstallLocalHonorsExclusions(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "excluded = [\"*.txt\"]\nlocal_install_excluded = [\"lib\"]\nremote_install_excluded = [\"run.sh\"]\n")

	_, err := e.in.Install(src, false)
	require.NoError(t, err)

	installDir := filepath.Join(e.root, "app")
	assert.FileExists(t, filepath.Join(installDir, "run.sh"), "remote-only exclusion must not apply")
	assert.NoDirExists(t, filepath.Join(installDir, "lib"))
}

func TestInstallConfigErrorBeforeMutation(t *testing.T) {
	e := newEnv(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"run.sh": "x"})

	_, err := e.in.Install(src, false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfiguration))
	assert.NoDirExists(t, e.root)
	assert.NoDirExists(t, e.binDir)
}

func TestInstallMissingSource(t *testing.T) {
	e := newEnv(t)
	_, err := e.in.Install(filepath.Join(t.TempDir(), "nope"), false)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Empty(t, e.remote.cloned)
}

func TestInstallWhileLocked(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")

	held, err := lock.Acquire(e.lockDir, "app")
	require.NoError(t, err)
	defer held.Release()

	_, err = e.in.Install(src, false)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLocked))
	assert.NoDirExists(t, filepath.Join(e.root, "app"))
}

func TestUpdateLocalUnchangedWritesNothing(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)

	installDir := filepath.Join(e.root, "app")
	before := snapshot(t, installDir)
	// Make any rewrite observable through mtimes.
	time.Sleep(20 * time.Millisecond)

	status, err := e.in.Update("app")
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, status)
	assert.Equal(t, "already up to date", string(status))
	assert.Equal(t, before, snapshot(t, installDir))
	assert.Empty(t, e.registry.touched)
}

func TestUpdateLocalModifiedFile(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)

	writeFiles(t, src, map[string]string{"lib/util.sh": "util() { echo changed; }\n"})

	status, err := e.in.Update("app")
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, status)

	want, _ := os.ReadFile(filepath.Join(src, "lib/util.sh"))
	got, err := os.ReadFile(filepath.Join(e.root, "app", "lib/util.sh"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, false, readProvenanceJSON(t, filepath.Join(e.root, "app"))["is_git_install"])
	assert.Equal(t, []string{"app"}, e.registry.touched)
}

func TestUpdateLocalRemovedFile(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(src, "lib", "data")))

	status, err := e.in.Update("app")
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, status)
	assert.NoDirExists(t, filepath.Join(e.root, "app", "lib", "data"))
}

func TestUpdateLocalExcludedChangeIsNoop(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "local_install_excluded = [\"*.log\"]\n")
	writeFiles(t, src, map[string]string{"debug.log": "one"})
	_, err := e.in.Install(src, false)
	require.NoError(t, err)

	writeFiles(t, src, map[string]string{"debug.log": "two, longer"})

	status, err := e.in.Update("app")
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, status)
}

func TestUpdateLocalRestoresDeletedWrapper(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	res, err := e.in.Install(src, false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(res.WrapperPath))

	status, err := e.in.Update("app")
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, status)
	assert.FileExists(t, res.WrapperPath)
}

func TestUpdateLocalSourceGone(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(src))

	_, err = e.in.Update("app")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.DirExists(t, filepath.Join(e.root, "app"), "a failed update leaves the install alone")
}

func TestUpdateRenamedExecutable(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)
	writeFiles(t, src, map[string]string{config.BuildFileName: descriptor("app2", "")})

	_, err = e.in.Update("app")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfiguration))
}

func TestUpdateNotInstalled(t *testing.T) {
	e := newEnv(t)
	_, err := e.in.Update("ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	_, err = e.in.Update("../etc")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestUpdateMissingProvenance(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "orphan"), 0755))

	_, err := e.in.Update("orphan")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
	assert.Contains(t, err.Error(), "metadata file not found")
}

func TestUpdateAllContinuesPastFailures(t *testing.T) {
	e := newEnv(t)
	src := localProject(t, "")
	_, err := e.in.Install(src, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "broken"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, ".staging-leftover"), 0755))

	outcomes, err := e.in.UpdateAll()
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "app", outcomes[0].Name)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, StatusUpToDate, outcomes[0].Status)

	assert.Equal(t, "broken", outcomes[1].Name)
	assert.True(t, errors.IsErrorCode(outcomes[1].Err, errors.ErrNotFound))
}

func TestUpdateAllEmptyRoot(t *testing.T) {
	e := newEnv(t)
	outcomes, err := e.in.UpdateAll()
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestUninstallLastProgramRemovesRoot(t *testing.T) {
	e := newEnv(t)
	res, err := e.in.Install(localProject(t, ""), false)
	require.NoError(t, err)

	out, err := e.in.Uninstall("app")
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.True(t, out.RootRemoved)
	assert.Equal(t, []string{
		"deleting " + res.WrapperPath,
		"deleting " + res.InstallDir,
		fmt.Sprintf("no programs left in %s, deleting", e.root),
	}, out.Messages)

	assert.NoDirExists(t, e.root)
	assert.NoFileExists(t, res.WrapperPath)
	assert.NotContains(t, e.registry.rows, "app")
}

func TestUninstallKeepsRootWithOtherPrograms(t *testing.T) {
	e := newEnv(t)
	_, err := e.in.Install(localProject(t, ""), false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "other"), 0755))

	out, err := e.in.Uninstall("app")
	require.NoError(t, err)
	assert.False(t, out.RootRemoved)
	assert.DirExists(t, e.root)
}

func TestUninstallNotFound(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "other"), 0755))

	out, err := e.in.Uninstall("ghost")
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Equal(t, []string{"program not found"}, out.Messages)
}

// remoteFixture is a fake clone: a .git directory plus project files.
func remoteFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".git/HEAD":          "ref: refs/heads/main\n",
		config.BuildFileName: descriptor("tool", "remote_install_excluded = [\"docs\", \"*.md\"]\n"),
		"run.sh":             "echo tool\n",
		"README.md":          "readme",
		"docs/guide.txt":     "guide",
		"src/main.sh":        "main",
	})
	return dir
}

func TestInstallRemote(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)

	res, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner/tool"}, e.remote.cloned)

	installDir := filepath.Join(e.root, "tool")
	assert.Equal(t, installDir, res.InstallDir)
	assert.Equal(t, provenance.ChannelRemote, res.Channel)
	assert.Equal(t, "https://github.com/owner/tool", res.Source)

	assert.DirExists(t, filepath.Join(installDir, ".git"))
	assert.FileExists(t, filepath.Join(installDir, "src", "main.sh"))
	assert.NoDirExists(t, filepath.Join(installDir, "docs"))
	assert.NoFileExists(t, filepath.Join(installDir, "README.md"))

	raw := readProvenanceJSON(t, installDir)
	assert.Equal(t, true, raw["is_git_install"])
	assert.Nil(t, raw["source_path"])

	names, err := os.ReadDir(e.root)
	require.NoError(t, err)
	require.Len(t, names, 1, "staging directory must be gone")
	assert.Equal(t, "tool", names[0].Name())
	assert.FileExists(t, filepath.Join(e.binDir, "tool"))
}

func TestInstallRemoteCloneFailure(t *testing.T) {
	e := newEnv(t)

	_, err := e.in.Install("https://github.com/owner/gone", false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRemoteTool))
	assert.Equal(t, gitrepo.MsgRepoNotFound, err.Error())

	entries, _ := os.ReadDir(e.root)
	assert.Empty(t, entries, "no staging left behind")
}

func TestInstallForcedRemote(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	src := localProject(t, "")

	_, err := e.in.Install(src, true)
	require.NoError(t, err)
	assert.Equal(t, []string{src}, e.remote.cloned)
}

func TestUpdateRemoteUpToDate(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	_, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)

	status, err := e.in.Update("tool")
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, status)
	assert.Equal(t, []string{filepath.Join(e.root, "tool")}, e.remote.updated)
	assert.Empty(t, e.registry.touched)
}

func TestUpdateRemoteReappliesExclusions(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	_, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)

	// Simulate reset --hard restoring pruned files and clean -fd removing
	// the untracked provenance file.
	e.remote.update = func(path string) gitrepo.Result {
		writeFiles(t, path, map[string]string{"docs/guide.txt": "guide v2", "src/main.sh": "main v2"})
		os.Remove(provenance.Path(path))
		return gitrepo.Result{Success: true}
	}

	status, err := e.in.Update("tool")
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, status)

	installDir := filepath.Join(e.root, "tool")
	assert.NoDirExists(t, filepath.Join(installDir, "docs"))
	assert.Equal(t, true, readProvenanceJSON(t, installDir)["is_git_install"])
	assert.Equal(t, []string{"tool"}, e.registry.touched)
}

func TestUpdateRemoteFailure(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	_, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)

	e.remote.update = func(string) gitrepo.Result {
		return gitrepo.Result{FailureMessage: gitrepo.MsgAuthFailed, RawMessage: "fatal: Authentication failed"}
	}

	_, err = e.in.Update("tool")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRemoteTool))
	assert.Equal(t, "fatal: Authentication failed", errors.GetErrorDetails(err)["raw"])
}

func TestRemoteDescriptorSurvivesItsOwnExclusion(t *testing.T) {
	e := newEnv(t)
	fixture := remoteFixture(t)
	writeFiles(t, fixture, map[string]string{
		config.BuildFileName: descriptor("tool", "excluded = [\"dumb_build.toml\", \"*.md\"]\n"),
	})
	e.remote.fixture = fixture

	_, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)

	installDir := filepath.Join(e.root, "tool")
	assert.FileExists(t, filepath.Join(installDir, config.BuildFileName))
	assert.NoFileExists(t, filepath.Join(installDir, "README.md"))

	status, err := e.in.Update("tool")
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, status)

	outcomes, err := e.in.UpdateAll()
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, StatusUpToDate, outcomes[0].Status)
}

func TestUpdateRemoteFailureAfterCleanRestoresProvenance(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	_, err := e.in.Install("owner/tool", false)
	require.NoError(t, err)
	installDir := filepath.Join(e.root, "tool")

	// reset and clean ran, then gc failed
	e.remote.update = func(path string) gitrepo.Result {
		os.Remove(provenance.Path(path))
		return gitrepo.Result{FailureMessage: "fatal: gc is already running", RawMessage: "fatal: gc is already running"}
	}
	_, err = e.in.Update("tool")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRemoteTool))
	assert.Equal(t, map[string]interface{}{"is_git_install": true, "source_path": nil}, readProvenanceJSON(t, installDir))

	e.remote.update = nil
	status, err := e.in.Update("tool")
	require.NoError(t, err, "the next update still finds its provenance")
	assert.Equal(t, StatusUpToDate, status)
}

func TestList(t *testing.T) {
	e := newEnv(t)
	e.remote.fixture = remoteFixture(t)
	_, err := e.in.Install(localProject(t, ""), false)
	require.NoError(t, err)
	_, err = e.in.Install("owner/tool", false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "orphan"), 0755))

	entries, err := e.in.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	app := entries[0]
	assert.Equal(t, "app", app.Name)
	assert.Equal(t, provenance.ChannelLocal, app.Provenance.Channel())
	assert.Greater(t, app.SizeBytes, int64(0))
	require.NotNil(t, app.Record)
	assert.Equal(t, wrapper.Path(e.binDir, "app"), app.Wrapper)

	orphan := entries[1]
	assert.Equal(t, "orphan", orphan.Name)
	assert.Nil(t, orphan.Provenance)
	assert.True(t, errors.IsErrorCode(orphan.ProvenanceErr, errors.ErrNotFound))
	assert.Nil(t, orphan.Record)

	tool := entries[2]
	assert.Equal(t, provenance.ChannelRemote, tool.Provenance.Channel())
	// The fixture's .git is not a real repository.
	assert.Empty(t, tool.Revision)
	assert.Empty(t, tool.Origin)
}

func TestLooksRemote(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"owner/repo", true},
		{"https://github.com/a/b", true},
		{"git@github.com:a/b.git", true},
		{"./owner/repo", false},
		{"/abs/path", false},
		{"~/projects/app", false},
		{"a/b/c", false},
		{"single", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksRemote(tt.in), tt.in)
	}
}

// copyDir copies a fixture tree for the fake clone.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, path)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

func TestUpdateAllReportsProgress(t *testing.T) {
	e := newEnv(t)
	var seen []string
	e.in = New(Options{
		InstallRoot: e.root,
		BinDir:      e.binDir,
		LockDir:     e.lockDir,
		Git:         e.remote,
		Progress:    func(name string) { seen = append(seen, name) },
	})
	_, err := e.in.Install(localProject(t, ""), false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(e.root, "zzz"), 0755))

	_, err = e.in.UpdateAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "zzz"}, seen)
}
