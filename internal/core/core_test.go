package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"refan/internal/clock"
	"refan/internal/gitutil"
	"refan/internal/state"
	"refan/pkg/migrate"
)

// Helper to create a temporary source file with given content
func createTempSourceFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "handler.go")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp source file: %v", err)
	}
	return tmpFile
}

// Helper to read file content as string
func readFileContent(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	return string(data)
}

func rewriteMigration() *migrate.Migration {
	return &migrate.Migration{
		Name:     "total-rewrite",
		Variants: []migrate.Variant{{Name: "Scope1", Ident: "scope1"}},
		Rules: []migrate.RuleSpec{
			{
				Name:    "total-cell",
				Kind:    migrate.KindRewrite,
				Find:    "TotalTonsCO2e: scope2Total,",
				Replace: "TotalTonsCO2e: scope1Total + scope2Total,",
			},
		},
	}
}

func fanoutMigration() *migrate.Migration {
	return &migrate.Migration{
		Name: "field-fanout",
		Variants: []migrate.Variant{
			{Name: "Scope1", Ident: "scope1"},
			{Name: "Scope2", Ident: "scope2"},
		},
		Rules: []migrate.RuleSpec{
			{
				Name:     "handler-fields",
				Kind:     migrate.KindFieldFanout,
				Block:    "type Handler struct {",
				Match:    []string{"calculator *Scope2Calculator"},
				Template: "{ident}Calculator *{variant}Calculator",
				Dedupe:   "{ident}Calculator *",
			},
		},
	}
}

func TestRunAppliesAndJournals(t *testing.T) {
	path := createTempSourceFile(t, "\tTotalTonsCO2e: scope2Total,\n")
	journal := NewInMemoryStore()
	mock := clock.NewMock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	var out bytes.Buffer

	code := Run(rewriteMigration(), []string{path}, Options{
		Journal: journal,
		Clock:   mock,
		Out:     &out,
	})

	if code != 0 {
		t.Fatalf("Run() = %d, want 0\noutput:\n%s", code, out.String())
	}
	if got, want := readFileContent(t, path), "\tTotalTonsCO2e: scope1Total + scope2Total,\n"; got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
	if !strings.Contains(out.String(), "1 file(s) processed, 0 failed") {
		t.Errorf("missing summary in output:\n%s", out.String())
	}

	records, err := journal.Load()
	if err != nil {
		t.Fatalf("journal load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("journal has %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Path != path || rec.DryRun {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Applied) != 1 || rec.Applied[0] != "total-cell" {
		t.Errorf("record.Applied = %v", rec.Applied)
	}
	if rec.Checksum != state.Checksum([]byte(readFileContent(t, path))) {
		t.Error("record checksum does not match written content")
	}
	if !rec.Timestamp.Equal(mock.Now()) {
		t.Errorf("record timestamp = %v, want %v", rec.Timestamp, mock.Now())
	}
}

func TestRunDryRun(t *testing.T) {
	content := "\tTotalTonsCO2e: scope2Total,\n"
	path := createTempSourceFile(t, content)
	journal := NewInMemoryStore()
	var out bytes.Buffer

	code := Run(rewriteMigration(), []string{path}, Options{
		DryRun:  true,
		Journal: journal,
		Out:     &out,
	})

	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}
	if got := readFileContent(t, path); got != content {
		t.Errorf("dry run modified the file: %q", got)
	}
	if !strings.Contains(out.String(), "+\tTotalTonsCO2e: scope1Total + scope2Total,") {
		t.Errorf("dry run output missing diff:\n%s", out.String())
	}
	records, _ := journal.Load()
	if len(records) != 0 {
		t.Errorf("dry run should not journal, got %d records", len(records))
	}
}

func TestRunFailureIsolation(t *testing.T) {
	// One healthy file, one with an unclosed block. The bad file fails its
	// own session; the good one is still rewritten.
	tmpDir := t.TempDir()
	good := filepath.Join(tmpDir, "good.go")
	bad := filepath.Join(tmpDir, "bad.go")
	goodContent := "type Handler struct {\n\tcalculator *Scope2Calculator\n}\n"
	badContent := "type Handler struct {\n\tcalculator *Scope2Calculator\n"
	if err := os.WriteFile(good, []byte(goodContent), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(badContent), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer

	code := Run(fanoutMigration(), []string{bad, good}, Options{Out: &out})

	if code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if got := readFileContent(t, bad); got != badContent {
		t.Errorf("failed session must leave the file untouched, got %q", got)
	}
	if !strings.Contains(readFileContent(t, good), "scope1Calculator *Scope1Calculator") {
		t.Error("healthy file was not rewritten")
	}
	if !strings.Contains(out.String(), "2 file(s) processed, 1 failed") {
		t.Errorf("missing summary in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "never closes") {
		t.Errorf("missing abort reason in output:\n%s", out.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	code := Run(rewriteMigration(), []string{filepath.Join(t.TempDir(), "absent.go")}, Options{Out: &out})
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
}

func TestRunNoTargets(t *testing.T) {
	var out bytes.Buffer
	code := Run(rewriteMigration(), nil, Options{Out: &out})
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "no target files") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunDefaultsToMigrationTargets(t *testing.T) {
	path := createTempSourceFile(t, "\tTotalTonsCO2e: scope2Total,\n")
	m := rewriteMigration()
	m.Targets = []string{path}
	var out bytes.Buffer

	code := Run(m, nil, Options{Out: &out})

	if code != 0 {
		t.Fatalf("Run() = %d, want 0\noutput:\n%s", code, out.String())
	}
	if !strings.Contains(readFileContent(t, path), "scope1Total + scope2Total") {
		t.Error("target from migration definition was not rewritten")
	}
}

// dirtyRunner reports every path as having uncommitted changes.
type dirtyRunner struct{}

func (dirtyRunner) CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error) {
	return []byte(" M handler.go\n"), nil
}

// failingRunner simulates running outside a repository.
type failingRunner struct{}

func (failingRunner) CombinedOutput(ctx context.Context, name string, arg ...string) ([]byte, error) {
	return []byte("fatal: not a git repository (or any of the parent directories): .git"), errors.New("exit status 128")
}

func TestRunRequireClean(t *testing.T) {
	content := "\tTotalTonsCO2e: scope2Total,\n"
	path := createTempSourceFile(t, content)
	gitutil.SetRunner(dirtyRunner{})
	defer gitutil.SetRunner(gitutil.DefaultRunner{}) // Reset after test
	var out bytes.Buffer

	code := Run(rewriteMigration(), []string{path}, Options{RequireClean: true, Out: &out})

	if code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if got := readFileContent(t, path); got != content {
		t.Errorf("dirty file must not be rewritten, got %q", got)
	}
	if !strings.Contains(out.String(), "uncommitted changes") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunRequireCleanNoRepo(t *testing.T) {
	path := createTempSourceFile(t, "\tTotalTonsCO2e: scope2Total,\n")
	gitutil.SetRunner(failingRunner{})
	defer gitutil.SetRunner(gitutil.DefaultRunner{}) // Reset after test
	var out bytes.Buffer

	code := Run(rewriteMigration(), []string{path}, Options{RequireClean: true, Out: &out})

	if code != 1 {
		t.Fatalf("Run() = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "clean check failed") {
		t.Errorf("output:\n%s", out.String())
	}
}
