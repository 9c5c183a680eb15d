package gitid

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hpungsan/msgkeep/internal/errors"
)

// Identity keys preserved messages: the canonical repository path plus
// the branch checked out at capture time.
type Identity struct {
	Repository string
	Branch     string
}

// CommandRunner executes a git subcommand in dir and returns trimmed
// stdout. The default implementation shells out; tests inject canned
// output instead.
type CommandRunner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct{}

// Run executes git with the given arguments in dir.
func (ExecRunner) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Resolver derives repository identities for a working directory.
type Resolver struct {
	workDir string
	runner  CommandRunner
}

// Option configures Resolver.
type Option func(*Resolver)

// WithWorkDir sets the directory git commands run in.
// Default is the process working directory.
func WithWorkDir(dir string) Option {
	return func(r *Resolver) {
		r.workDir = dir
	}
}

// WithRunner sets a custom command runner.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(r *Resolver) {
		r.runner = runner
	}
}

// NewResolver creates a resolver and applies any options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		workDir: ".",
		runner:  ExecRunner{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WorkDir returns the directory git commands run in.
func (r *Resolver) WorkDir() string {
	return r.workDir
}

// Resolve derives the full identity for the working directory.
func (r *Resolver) Resolve() (Identity, error) {
	repo, err := r.Repository()
	if err != nil {
		return Identity{}, err
	}

	branch, err := r.Branch()
	if err != nil {
		return Identity{}, err
	}

	return Identity{Repository: repo, Branch: branch}, nil
}

// Repository returns the canonical repository path: the parent of the
// git directory, made absolute with symlinks resolved, so the same
// repository maps to the same key from any cwd or symlinked path.
func (r *Resolver) Repository() (string, error) {
	gitDir, err := r.runner.Run(r.workDir, "rev-parse", "--git-dir")
	if err != nil {
		return "", errors.NewBranchUnresolvable("not a git repository", err)
	}

	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.workDir, gitDir)
	}
	abs, err := filepath.Abs(gitDir)
	if err != nil {
		return "", errors.NewBranchUnresolvable("cannot canonicalize repository path", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.NewBranchUnresolvable("cannot canonicalize repository path", err)
	}

	return filepath.Dir(resolved), nil
}

// Branch returns the currently checked out branch name.
// A detached HEAD has no branch and yields BranchUnresolvable.
func (r *Resolver) Branch() (string, error) {
	branch, err := r.runner.Run(r.workDir, "branch", "--show-current")
	if err != nil {
		return "", errors.NewBranchUnresolvable("cannot determine current branch", err)
	}
	if branch == "" {
		return "", errors.NewBranchUnresolvable("HEAD is detached", nil)
	}

	return branch, nil
}

// CommentChar returns the repository's core.commentChar setting, or "#"
// when unset. Git's "auto" mode picks a character at commit time that
// cannot be known here, so it also falls back to "#".
func (r *Resolver) CommentChar() string {
	out, err := r.runner.Run(r.workDir, "config", "--get", "core.commentChar")
	if err != nil || out == "" || out == "auto" {
		return "#"
	}
	return out
}
