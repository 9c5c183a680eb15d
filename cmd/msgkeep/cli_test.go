package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hpungsan/msgkeep"
	"github.com/hpungsan/msgkeep/internal/message"
	"github.com/hpungsan/msgkeep/internal/store"
)

// staticResolver pins the repository identity so tests never spawn git.
type staticResolver struct {
	id msgkeep.Identity
}

func (s staticResolver) Resolve() (msgkeep.Identity, error) {
	return s.id, nil
}

// testOptions returns Keeper options for CLI tests and points HOME at
// a scratch directory so the user's own config cannot leak in. The
// cache directory still travels through the --cache-dir flag.
func testOptions(t *testing.T, id msgkeep.Identity) []msgkeep.Option {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return []msgkeep.Option{
		msgkeep.WithResolver(staticResolver{id: id}),
		msgkeep.WithLogger(zap.NewNop()),
	}
}

func seedMessage(t *testing.T, cacheDir string, id msgkeep.Identity, hook, content string) {
	t.Helper()
	db, err := store.Open(cacheDir)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	defer db.Close()

	rec := &message.Record{
		Repository: id.Repository,
		Branch:     id.Branch,
		Hook:       hook,
		Content:    content,
	}
	if err := store.Upsert(db, rec); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
}

func lookupSaved(t *testing.T, cacheDir string, id msgkeep.Identity) (string, bool) {
	t.Helper()
	db, err := store.Open(cacheDir)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	defer db.Close()

	rec, ok, err := store.Lookup(db, id.Repository, id.Branch)
	if err != nil {
		t.Fatalf("failed to look up message: %v", err)
	}
	if !ok {
		return "", false
	}
	return rec.Content, true
}

// TestCLIRestore tests the restore command merging and consuming a
// saved message.
func TestCLIRestore(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	cacheDir := t.TempDir()
	seedMessage(t, cacheDir, id, "commit-lint", "WIP: fix thing")

	template := "# Please enter the commit message for your changes.\n"
	msgFile := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	if err := os.WriteFile(msgFile, []byte(template), 0600); err != nil {
		t.Fatalf("failed to write message file: %v", err)
	}

	app := newApp(testOptions(t, id)...)
	if err := app.Run([]string{"msgkeep", "restore", "--cache-dir", cacheDir, msgFile}); err != nil {
		t.Fatalf("restore command failed: %v", err)
	}

	data, err := os.ReadFile(msgFile)
	if err != nil {
		t.Fatalf("failed to read message file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "WIP: fix thing") {
		t.Errorf("restored file missing saved message:\n%s", content)
	}
	if !strings.Contains(content, "# Existing commit message content") {
		t.Errorf("restored file missing separator:\n%s", content)
	}
	if !strings.Contains(content, "# Please enter the commit message") {
		t.Errorf("restored file missing original template:\n%s", content)
	}

	if _, ok := lookupSaved(t, cacheDir, id); ok {
		t.Error("saved message should be consumed after restore")
	}
}

// TestCLIRestoreNoSavedMessage tests that restore leaves the file
// alone when nothing was preserved.
func TestCLIRestoreNoSavedMessage(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	cacheDir := t.TempDir()

	template := "# template only\n"
	msgFile := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")
	if err := os.WriteFile(msgFile, []byte(template), 0600); err != nil {
		t.Fatalf("failed to write message file: %v", err)
	}

	app := newApp(testOptions(t, id)...)
	if err := app.Run([]string{"msgkeep", "restore", "--cache-dir", cacheDir, msgFile}); err != nil {
		t.Fatalf("restore command failed: %v", err)
	}

	data, err := os.ReadFile(msgFile)
	if err != nil {
		t.Fatalf("failed to read message file: %v", err)
	}
	if string(data) != template {
		t.Errorf("file changed with nothing saved:\n%s", data)
	}
}

// TestCLIRestoreBrokenFile tests that an unreadable message file does
// not make the command fail: a nonzero exit here would abort the
// commit that git is preparing.
func TestCLIRestoreBrokenFile(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	cacheDir := t.TempDir()
	seedMessage(t, cacheDir, id, "commit-lint", "WIP: fix thing")

	// A directory path fails both the read and the write
	app := newApp(testOptions(t, id)...)
	if err := app.Run([]string{"msgkeep", "restore", "--cache-dir", cacheDir, t.TempDir()}); err != nil {
		t.Fatalf("restore must not fail the hook: %v", err)
	}

	if _, ok := lookupSaved(t, cacheDir, id); !ok {
		t.Error("saved message must survive a failed restore")
	}
}

// TestCLIRestoreMissingArgument tests that a misconfigured hook line
// is reported loudly.
func TestCLIRestoreMissingArgument(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	cacheDir := t.TempDir()

	app := newApp(testOptions(t, id)...)
	err := app.Run([]string{"msgkeep", "restore", "--cache-dir", cacheDir})
	if err == nil {
		t.Error("expected error for missing message file argument, got nil")
	}
}

// TestCLIDump tests the dump command.
func TestCLIDump(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	other := msgkeep.Identity{Repository: "/other", Branch: "dev"}
	cacheDir := t.TempDir()
	seedMessage(t, cacheDir, id, "commit-lint", "here")
	seedMessage(t, cacheDir, other, "spell-check", "elsewhere")

	app := newApp(testOptions(t, id)...)

	t.Run("all repositories", func(t *testing.T) {
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := app.Run([]string{"msgkeep", "dump", "--cache-dir", cacheDir, "--all"})

		w.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("dump command failed: %v", err)
		}

		var output dumpOutput
		if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
			t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
		}
		if output.Count != 2 {
			t.Errorf("expected count=2, got %d", output.Count)
		}
	})

	t.Run("current repository only", func(t *testing.T) {
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := app.Run([]string{"msgkeep", "dump", "--cache-dir", cacheDir})

		w.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("dump command failed: %v", err)
		}

		var output dumpOutput
		if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
			t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
		}
		if output.Count != 1 {
			t.Errorf("expected count=1, got %d", output.Count)
		}
		if len(output.Messages) != 1 || output.Messages[0].Repository != "/repo" {
			t.Errorf("expected only the current repository, got %+v", output.Messages)
		}
	})
}

// TestCLIClear tests the clear command.
func TestCLIClear(t *testing.T) {
	id := msgkeep.Identity{Repository: "/repo", Branch: "main"}
	other := msgkeep.Identity{Repository: "/other", Branch: "dev"}
	cacheDir := t.TempDir()
	seedMessage(t, cacheDir, id, "commit-lint", "here")
	seedMessage(t, cacheDir, other, "spell-check", "elsewhere")

	app := newApp(testOptions(t, id)...)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run([]string{"msgkeep", "clear", "--cache-dir", cacheDir})

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("clear command failed: %v", err)
	}

	var output clearOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
	}
	if output.Cleared != 1 {
		t.Errorf("expected cleared=1, got %d", output.Cleared)
	}
	if _, ok := lookupSaved(t, cacheDir, id); ok {
		t.Error("current entry should be cleared")
	}
	if _, ok := lookupSaved(t, cacheDir, other); !ok {
		t.Error("other repository's entry should remain")
	}

	// --all drops the remaining entry
	oldStdout = os.Stdout
	r, w, _ = os.Pipe()
	os.Stdout = w

	err = app.Run([]string{"msgkeep", "clear", "--cache-dir", cacheDir, "--all"})

	w.Close()
	buf.Reset()
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("clear --all command failed: %v", err)
	}
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
	}
	if output.Cleared != 1 {
		t.Errorf("expected cleared=1, got %d", output.Cleared)
	}
	if _, ok := lookupSaved(t, cacheDir, other); ok {
		t.Error("clear --all should drop every entry")
	}
}
