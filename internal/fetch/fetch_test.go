package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

const fakeGitScript = `#!/bin/sh
echo "$@" >> "$FAKE_GIT_LOG"
if [ -n "$FAKE_GIT_FAIL" ]; then
  echo "fatal: repository not found" >&2
  exit 128
fi
if [ "$1" = "clone" ]; then
  for last; do :; done
  mkdir -p "$last/.git"
  echo "# note" > "$last/note.md"
fi
exit 0
`

func fakeGit(t *testing.T) (binary, logPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake git binary requires a POSIX shell")
	}
	dir := t.TempDir()
	binary = filepath.Join(dir, "git")
	if err := os.WriteFile(binary, []byte(fakeGitScript), 0o755); err != nil {
		t.Fatalf("write fake git: %v", err)
	}
	logPath = filepath.Join(dir, "calls.log")
	t.Setenv("FAKE_GIT_LOG", logPath)
	return binary, logPath
}

func readCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read calls: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

var gitSource = interfaces.SourceDescriptor{Kind: interfaces.SourceKindGit, URL: "https://github.com/example/notes.git"}

func TestGitFetcherClonesIntoBuildDir(t *testing.T) {
	binary, logPath := fakeGit(t)
	workspace := NewWorkspace(t.TempDir())
	fetcher := NewGitFetcher(workspace, GitConfig{Binary: binary, Depth: 1, Branch: "main"})

	result, err := fetcher.Fetch(context.Background(), gitSource)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(result.Root) != "repo" || !strings.HasPrefix(result.Root, filepath.Join(workspace.Root, "build")) {
		t.Fatalf("unexpected root %q", result.Root)
	}
	if _, err := os.Stat(filepath.Join(result.Root, "note.md")); err != nil {
		t.Fatalf("expected cloned content: %v", err)
	}

	calls := readCalls(t, logPath)
	want := "clone --depth 1 --branch main " + gitSource.URL + " " + result.Root
	if len(calls) != 1 || calls[0] != want {
		t.Fatalf("expected %q, got %v", want, calls)
	}
}

func TestGitFetcherReusesExistingClone(t *testing.T) {
	binary, logPath := fakeGit(t)
	fetcher := NewGitFetcher(NewWorkspace(t.TempDir()), GitConfig{Binary: binary})

	first, err := fetcher.Fetch(context.Background(), gitSource)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), gitSource)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if first.Root != second.Root {
		t.Fatalf("expected the same root, got %q and %q", first.Root, second.Root)
	}
	if calls := readCalls(t, logPath); len(calls) != 1 {
		t.Fatalf("expected a single clone, got %v", calls)
	}
}

func TestGitFetcherPullsWhenUpdating(t *testing.T) {
	binary, logPath := fakeGit(t)
	fetcher := NewGitFetcher(NewWorkspace(t.TempDir()), GitConfig{Binary: binary, Update: true})

	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(context.Background(), gitSource); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	calls := readCalls(t, logPath)
	if len(calls) != 2 || calls[1] != "pull --ff-only" {
		t.Fatalf("expected clone then pull, got %v", calls)
	}
}

func TestGitFetcherReportsCommandFailure(t *testing.T) {
	binary, _ := fakeGit(t)
	t.Setenv("FAKE_GIT_FAIL", "1")
	fetcher := NewGitFetcher(NewWorkspace(t.TempDir()), GitConfig{Binary: binary})

	_, err := fetcher.Fetch(context.Background(), gitSource)
	if !errors.Is(err, seeds.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || !strings.Contains(cmdErr.Output, "repository not found") {
		t.Fatalf("expected command output on error, got %#v", err)
	}
}

func TestLocalFetcher(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "vault"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fetcher := NewLocalFetcher(base)

	result, err := fetcher.Fetch(context.Background(), interfaces.SourceDescriptor{Kind: interfaces.SourceKindLocal, URL: "vault"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Root != filepath.Join(base, "vault") {
		t.Fatalf("unexpected root %q", result.Root)
	}

	_, err = fetcher.Fetch(context.Background(), interfaces.SourceDescriptor{Kind: interfaces.SourceKindLocal, URL: "missing"})
	if !errors.Is(err, seeds.ErrFetch) || !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected missing source error, got %v", err)
	}
}

func TestRegistryDispatchesByKind(t *testing.T) {
	base := t.TempDir()
	registry := NewRegistry()
	registry.Register(interfaces.SourceKindLocal, NewLocalFetcher(""))

	result, err := registry.Fetch(context.Background(), interfaces.SourceDescriptor{Kind: interfaces.SourceKindLocal, URL: base})
	if err != nil || result.Root != filepath.Clean(base) {
		t.Fatalf("unexpected result %#v / %v", result, err)
	}

	_, err = registry.Fetch(context.Background(), gitSource)
	if !errors.Is(err, ErrUnsupportedKind) || !errors.Is(err, seeds.ErrFetch) {
		t.Fatalf("expected unsupported kind, got %v", err)
	}
	if kinds := registry.Kinds(); len(kinds) != 1 || kinds[0] != interfaces.SourceKindLocal {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestWorkspaceDirs(t *testing.T) {
	workspace := NewWorkspace(t.TempDir())

	build, err := workspace.BuildDirPath("My Notes")
	if err != nil {
		t.Fatalf("BuildDirPath: %v", err)
	}
	data, err := workspace.DataDirPath("My Notes")
	if err != nil {
		t.Fatalf("DataDirPath: %v", err)
	}
	for _, dir := range []string{build, data} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
	}
	if filepath.Dir(build) != filepath.Join(workspace.Root, "build") || filepath.Dir(data) != filepath.Join(workspace.Root, "data") {
		t.Fatalf("unexpected dirs %s %s", build, data)
	}
	if filepath.Base(build) != filepath.Base(data) {
		t.Fatal("expected build and data dirs to share the seed segment")
	}

	if _, err := (Workspace{}).BuildDirPath("x"); !errors.Is(err, ErrWorkspaceRoot) {
		t.Fatalf("expected ErrWorkspaceRoot, got %v", err)
	}
}

func TestDirNameIsSingleSegment(t *testing.T) {
	for _, value := range []string{"https://github.com/example/notes.git", "My Notes", "../../etc"} {
		name := DirName(value)
		if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
			t.Fatalf("DirName(%q) = %q", value, name)
		}
	}
}

type fieldsLogger struct {
	fields   map[string]any
	messages *[]string
}

func (l fieldsLogger) Trace(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }
func (l fieldsLogger) Debug(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }
func (l fieldsLogger) Info(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }
func (l fieldsLogger) Warn(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }
func (l fieldsLogger) Error(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }
func (l fieldsLogger) Fatal(msg string, _ ...any) { *l.messages = append(*l.messages, msg) }

func (l fieldsLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l fieldsLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := map[string]any{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*l.messages = append(*l.messages, "fields:"+toString(merged["url"]))
	return fieldsLogger{fields: merged, messages: l.messages}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func TestGitFetcherLogsWithSourceFields(t *testing.T) {
	binary, _ := fakeGit(t)
	messages := []string{}
	logger := fieldsLogger{fields: map[string]any{}, messages: &messages}
	fetcher := NewGitFetcher(NewWorkspace(t.TempDir()), GitConfig{Binary: binary}, WithGitLogger(logger))

	if _, err := fetcher.Fetch(context.Background(), gitSource); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	joined := strings.Join(messages, ",")
	if !strings.Contains(joined, "fields:"+gitSource.URL) || !strings.Contains(joined, "seeds.fetch.clone") {
		t.Fatalf("expected scoped clone log, got %v", messages)
	}
}
