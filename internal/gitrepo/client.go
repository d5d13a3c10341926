// Package gitrepo drives the git executable through shallow clones and
// in-place updates of installed checkouts, turning tool failures into a
// small set of user-facing messages.
package gitrepo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// DefaultHost is used for bare owner/repo identifiers.
const DefaultHost = "github.com"

// Failure messages reported in Result.FailureMessage.
const (
	MsgUpToDate         = "repository is already up to date"
	MsgDestinationInUse = "destination path already exists and is not empty"
	MsgNotInstalled     = "git is not installed or not available in PATH"
	MsgPathMissing      = "specified path does not exist"
	MsgNotARepository   = "specified path is not a git repository"
	MsgRepoNotFound     = "repository not found"
	MsgAuthFailed       = "authentication failed: check your credentials"
	MsgHostUnresolvable = "could not resolve host: check your internet connection"
	MsgUnknown          = "unknown git error"
)

// Result is the outcome of one client operation. FailureMessage is set
// exactly when Success is false. RawMessage holds the unfiltered tool output.
type Result struct {
	Success        bool
	FailureMessage string
	RawMessage     string
}

func ok() Result { return Result{Success: true} }

func fail(msg, raw string) Result {
	return Result{FailureMessage: msg, RawMessage: raw}
}

// UpToDate reports whether r is the "nothing to do" outcome of UpdateAtPath.
func (r Result) UpToDate() bool {
	return !r.Success && r.FailureMessage == MsgUpToDate
}

// Err converts a failed result into an error. The up-to-date outcome maps to
// ErrAlreadyUpToDate, everything else to ErrRemoteTool with the raw output
// attached as the "raw" detail.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	code := errors.ErrRemoteTool
	if r.UpToDate() {
		code = errors.ErrAlreadyUpToDate
	}
	e := errors.New(code, r.FailureMessage)
	if r.RawMessage != "" {
		e.WithDetail("raw", r.RawMessage)
	}
	return e
}

// Runner executes git with args in dir and returns its captured output. A
// non-nil error means the command could not start or exited non-zero.
type Runner func(dir string, args ...string) (stdout, stderr string, err error)

// Client wraps the git executable.
type Client struct {
	host     string
	run      Runner
	lookPath func(string) (string, error)
	logger   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.run = r }
}

// WithLookPath replaces the executable lookup used by IsAvailable.
func WithLookPath(f func(string) (string, error)) Option {
	return func(c *Client) { c.lookPath = f }
}

// New returns a Client resolving bare identifiers against host.
func New(host string, opts ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	c := &Client{
		host:     host,
		run:      execGit,
		lookPath: exec.LookPath,
		logger:   logging.GetLogger("gitrepo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAvailable reports whether git can be found on PATH.
func (c *Client) IsAvailable() bool {
	_, err := c.lookPath("git")
	return err == nil
}

// ResolveURL returns the clone URL for locator. Fully qualified URLs and
// scp-style addresses are returned unchanged; anything else is treated as
// owner/repo on the configured host.
func (c *Client) ResolveURL(locator string) string {
	for _, scheme := range []string{"http://", "https://", "git://", "ssh://", "file://"} {
		if strings.HasPrefix(locator, scheme) {
			return locator
		}
	}
	if isSCPLike(locator) {
		return locator
	}
	return fmt.Sprintf("https://%s/%s", c.host, strings.Trim(locator, "/"))
}

// isSCPLike matches user@host:path.
func isSCPLike(s string) bool {
	at := strings.Index(s, "@")
	colon := strings.Index(s, ":")
	slash := strings.Index(s, "/")
	return at > 0 && colon > at && (slash == -1 || colon < slash)
}

// Clone makes a depth-1 clone of locator into dest. dest must be absent or
// an empty directory.
func (c *Client) Clone(locator, dest string) Result {
	if !c.IsAvailable() {
		return fail(MsgNotInstalled, "")
	}

	if entries, err := os.ReadDir(dest); err == nil && len(entries) > 0 {
		return fail(MsgDestinationInUse, "")
	}

	url := c.ResolveURL(locator)
	c.logger.Info().Str("url", url).Str("dest", dest).Msg("Cloning repository")

	if res := c.git("", "clone", "--depth", "1", url, dest); !res.Success {
		return res
	}
	return ok()
}

// UpdateAtPath brings the checkout at path to the tip of its current branch
// on origin. When the local HEAD already equals the remote tip it returns
// the MsgUpToDate failure without touching the working tree. Otherwise it
// hard-resets, removes untracked files and runs gc. Local edits are
// discarded.
func (c *Client) UpdateAtPath(path string) Result {
	if !c.IsAvailable() {
		return fail(MsgNotInstalled, "")
	}
	if _, err := os.Stat(path); err != nil {
		return fail(MsgPathMissing, "")
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return fail(MsgNotARepository, "")
	}

	branch, res := c.output(path, "rev-parse", "--abbrev-ref", "HEAD")
	if !res.Success {
		return res
	}

	if res := c.git(path, "fetch", "origin", branch, "--depth", "1"); !res.Success {
		return res
	}

	local, res := c.output(path, "rev-parse", "HEAD")
	if !res.Success {
		return res
	}
	remote, res := c.output(path, "rev-parse", "origin/"+branch)
	if !res.Success {
		return res
	}

	if local == remote {
		c.logger.Debug().Str("path", path).Str("commit", local).Msg("Checkout already at remote tip")
		return fail(MsgUpToDate, "")
	}

	c.logger.Info().
		Str("path", path).
		Str("branch", branch).
		Str("from", local).
		Str("to", remote).
		Msg("Resetting checkout to remote tip")

	steps := [][]string{
		{"reset", "--hard", "origin/" + branch},
		{"clean", "-fd"},
		{"gc", "--prune=now", "--aggressive"},
	}
	for _, args := range steps {
		if res := c.git(path, args...); !res.Success {
			return res
		}
	}
	return ok()
}

func (c *Client) git(dir string, args ...string) Result {
	_, res := c.output(dir, args...)
	return res
}

// output runs git and returns its trimmed stdout.
func (c *Client) output(dir string, args ...string) (string, Result) {
	logging.LogCommand(c.logger, "git", args)
	stdout, stderr, err := c.run(dir, args...)
	if err != nil {
		res := classify(stdout, stderr)
		c.logger.Debug().
			Err(err).
			Strs("args", args).
			Str("raw", res.RawMessage).
			Msg("git command failed")
		return "", res
	}
	return strings.TrimSpace(stdout), ok()
}

// classify maps raw git output to a user-facing failure.
func classify(stdout, stderr string) Result {
	raw := strings.TrimSpace(stderr)
	if raw == "" {
		raw = strings.TrimSpace(stdout)
	}

	switch {
	case strings.Contains(raw, "Repository not found"):
		return fail(MsgRepoNotFound, raw)
	case strings.Contains(raw, "Authentication failed"):
		return fail(MsgAuthFailed, raw)
	case strings.Contains(raw, "Could not resolve host"):
		return fail(MsgHostUnresolvable, raw)
	case raw == "":
		return fail(MsgUnknown, "")
	default:
		return fail(raw, raw)
	}
}

func execGit(dir string, args ...string) (string, string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
