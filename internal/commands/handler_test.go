package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-seeds/internal/logging"
	"github.com/goliatone/go-seeds/internal/runtimeconfig"
	"github.com/goliatone/go-seeds/internal/seeds"
	"github.com/goliatone/go-seeds/pkg/interfaces"
)

type testMessage struct{}

func (testMessage) Type() string { return "seeds.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "seeds.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
	if code := TextCode(err); code != codePlantTimeout {
		t.Fatalf("expected %s, got %q", codePlantTimeout, code)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var got []TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	},
		WithOperation[testMessage]("seeds.test"),
		WithMessageFields(func(testMessage) map[string]any { return map[string]any{"seed": "notes"} }),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
			got = append(got, info)
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected error")
	}
	if len(got) != 1 {
		t.Fatalf("expected one telemetry callback, got %d", len(got))
	}
	info := got[0]
	if info.Status != TelemetryStatusFailed || info.Operation != "seeds.test" || info.Command != "seeds.test.message" {
		t.Fatalf("unexpected telemetry %#v", info)
	}
	if info.Fields["seed"] != "notes" {
		t.Fatalf("expected message fields in telemetry, got %#v", info.Fields)
	}
}

func TestHandlerPreservesUnderlyingError(t *testing.T) {
	sentinel := errors.New("plant failed")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return sentinel
	})

	if err := h.Execute(context.Background(), testMessage{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error to match sentinel, got %v", err)
	}
}

func TestHandlerClassifiesPlantFailures(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		code     string
	}{
		{"unknown seed", fmt.Errorf("plant: %w", runtimeconfig.ErrSeedNotFound), goerrors.CategoryNotFound, codeSeedNotFound},
		{"fetch", &seeds.FetchError{Kind: interfaces.SourceKindGit, URL: "https://x", Err: errors.New("exit 128")}, goerrors.CategoryExternal, codeFetchFailed},
		{"extract", &seeds.ExtractionError{Root: "/tmp", Path: "a.md", Err: errors.New("bad yaml")}, goerrors.CategoryBadInput, codeExtractFailed},
		{"write", &seeds.WriteError{Identity: "a", Err: errors.New("disk full")}, goerrors.CategoryOperation, codeWriteFailed},
		{"asset", &seeds.AssetWriteError{Source: "a.png", Destination: "b.png", Err: errors.New("denied")}, goerrors.CategoryOperation, codeAssetCopyFailed},
		{"strategy", &seeds.UnknownMergeStrategyError{Strategy: "sideways"}, goerrors.CategoryValidation, codeMergeRejected},
		{"other", errors.New("boom"), goerrors.CategoryCommand, codePlantFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
				return tc.err
			})
			err := h.Execute(context.Background(), testMessage{})
			if !goerrors.IsCategory(err, tc.category) {
				t.Fatalf("expected %s category, got %v", tc.category, err)
			}
			if code := TextCode(err); code != tc.code {
				t.Fatalf("expected code %s, got %q", tc.code, code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected underlying error to be preserved, got %v", err)
			}
		})
	}
}

func TestHandlerStoresFieldsOnContext(t *testing.T) {
	var seen map[string]any
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		seen = logging.ContextFields(ctx)
		return nil
	},
		WithOperation[testMessage]("seeds.plant"),
		WithMessageFields(func(testMessage) map[string]any { return map[string]any{"seed": "notes"} }),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if seen["seed"] != "notes" || seen["operation"] != "seeds.plant" || seen["command"] != "seeds.test.message" {
		t.Fatalf("expected command fields on context, got %#v", seen)
	}
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
	args   []any
}

type recordingLogger struct {
	fields  map[string]any
	entries *[]recordedEntry
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{fields: map[string]any{}, entries: &[]recordedEntry{}}
}

func (l recordingLogger) log(level, msg string, args []any) {
	*l.entries = append(*l.entries, recordedEntry{level: level, msg: msg, fields: l.fields, args: args})
}

func (l recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args) }
func (l recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l recordingLogger) Info(msg string, args ...any) { l.log("info", msg, args) }
func (l recordingLogger) Warn(msg string, args ...any) { l.log("warn", msg, args) }
func (l recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args) }

func (l recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return recordingLogger{fields: merged, entries: l.entries}
}

func TestDefaultTelemetryLogsWithSeedFields(t *testing.T) {
	logger := newRecordingLogger()
	telemetry := DefaultTelemetry[testMessage](logger)

	failure := wrapExecuteError(&seeds.FetchError{Kind: interfaces.SourceKindGit, URL: "https://x", Err: errors.New("exit 128")})
	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Command:   "seeds.plant",
		Operation: "seeds.plant",
		Fields:    map[string]any{"seed": "notes", "command": "seeds.plant"},
		Duration:  3 * time.Millisecond,
		Error:     failure,
		Status:    TelemetryStatusFailed,
	})

	entries := *logger.entries
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.level != "error" || entry.msg != "seeds.plant.failed" {
		t.Fatalf("unexpected entry %s %q", entry.level, entry.msg)
	}
	if entry.fields["seed"] != "notes" || entry.fields["action"] != "seeds.plant" || entry.fields["command"] != "seeds.plant" {
		t.Fatalf("expected seed scoped fields, got %#v", entry.fields)
	}
	if !containsArg(entry.args, "code", codeFetchFailed) {
		t.Fatalf("expected text code in args, got %#v", entry.args)
	}
}

func TestDefaultTelemetryWarnsOnContextError(t *testing.T) {
	logger := newRecordingLogger()
	telemetry := DefaultTelemetry[testMessage](logger)

	telemetry(context.Background(), testMessage{}, TelemetryInfo{
		Error:  wrapContextError(context.Canceled),
		Status: TelemetryStatusContextError,
	})

	entries := *logger.entries
	if len(entries) != 1 || entries[0].level != "warn" || entries[0].msg != "command.execute.context_error" {
		t.Fatalf("unexpected entries %#v", entries)
	}
	if !containsArg(entries[0].args, "code", codePlantCanceled) {
		t.Fatalf("expected cancel code, got %#v", entries[0].args)
	}
}

func containsArg(args []any, key string, value any) bool {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key && args[i+1] == value {
			return true
		}
	}
	return false
}
