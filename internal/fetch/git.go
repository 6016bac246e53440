package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const (
	DefaultGitBinary = "git"
	repoDirName      = "repo"
)

// GitConfig controls how repositories are cloned.
type GitConfig struct {
	// Binary is the git executable (defaults to "git").
	Binary string
	// Depth is passed as --depth when positive.
	Depth int
	// Branch is used when the source does not name one.
	Branch string
	// Update pulls an existing clone instead of reusing it untouched.
	Update bool
}

// GitOption customises a GitFetcher.
type GitOption func(*GitFetcher)

// WithGitLogger sets the logger used for clone and pull events.
func WithGitLogger(logger interfaces.Logger) GitOption {
	return func(f *GitFetcher) {
		f.logger = logging.Ensure(logger)
	}
}

// GitFetcher clones git sources into <workspace>/<build>/<source>/repo. An
// existing clone is reused, so repeated plants do not hit the network unless
// Update is set.
type GitFetcher struct {
	workspace Workspace
	cfg       GitConfig
	logger    interfaces.Logger
	locks     *seeds.KeyedMutex
}

var _ interfaces.SourceFetcher = (*GitFetcher)(nil)

// NewGitFetcher builds a GitFetcher for workspace.
func NewGitFetcher(workspace Workspace, cfg GitConfig, opts ...GitOption) *GitFetcher {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultGitBinary
	}
	fetcher := &GitFetcher{
		workspace: workspace,
		cfg:       cfg,
		logger:    logging.NoOp(),
		locks:     seeds.NewKeyedMutex(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fetcher)
		}
	}
	return fetcher
}

// RepoPath returns where source is cloned.
func (f *GitFetcher) RepoPath(source interfaces.SourceDescriptor) (string, error) {
	dir, err := f.workspace.BuildDirPath(source.URL)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, repoDirName), nil
}

// Fetch implements interfaces.SourceFetcher.
func (f *GitFetcher) Fetch(ctx context.Context, source interfaces.SourceDescriptor) (interfaces.FetchResult, error) {
	fail := func(err error) (interfaces.FetchResult, error) {
		return interfaces.FetchResult{}, &seeds.FetchError{Kind: source.Kind, URL: source.URL, Err: err}
	}

	repoPath, err := f.RepoPath(source)
	if err != nil {
		return fail(err)
	}

	unlock := f.locks.Lock(repoPath)
	defer unlock()

	logger := logging.WithFields(f.logger, map[string]any{"url": source.URL, "path": repoPath})

	if repositoryExists(repoPath) {
		if !f.cfg.Update {
			logger.Debug("seeds.fetch.reuse")
			return interfaces.FetchResult{Root: repoPath}, nil
		}
		logger.Info("seeds.fetch.pull")
		if err := f.run(ctx, repoPath, "pull repository", "pull", "--ff-only"); err != nil {
			return fail(err)
		}
		return interfaces.FetchResult{Root: repoPath}, nil
	}

	// A partial directory from an interrupted clone blocks git clone.
	if err := os.RemoveAll(repoPath); err != nil {
		return fail(fmt.Errorf("fetch: clear %s: %w", repoPath, err))
	}

	logger.Info("seeds.fetch.clone")
	if err := f.run(ctx, "", "clone repository", f.cloneArgs(source, repoPath)...); err != nil {
		_ = os.RemoveAll(repoPath)
		return fail(err)
	}
	return interfaces.FetchResult{Root: repoPath}, nil
}

func (f *GitFetcher) cloneArgs(source interfaces.SourceDescriptor, repoPath string) []string {
	args := []string{"clone"}
	if f.cfg.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(f.cfg.Depth))
	}
	branch := strings.TrimSpace(source.Branch)
	if branch == "" {
		branch = strings.TrimSpace(f.cfg.Branch)
	}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	return append(args, source.URL, repoPath)
}

func (f *GitFetcher) run(ctx context.Context, dir, operation string, args ...string) error {
	cmd := exec.CommandContext(ctx, f.cfg.Binary, args...) //nolint:gosec // binary and args come from configuration
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &CommandError{
			Operation: operation,
			Command:   f.cfg.Binary + " " + args[0],
			Output:    strings.TrimSpace(string(output)),
			Err:       err,
		}
	}
	return nil
}

func repositoryExists(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, ".git"))
	return err == nil
}
