package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pyramid/internal/config"
	"pyramid/internal/session"
	"pyramid/internal/store"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("API_KEY", "")
	t.Setenv("PYRAMID_API_KEY", "")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append(args, "--env-file", filepath.Join(home, "missing.env")))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConversation(t *testing.T) string {
	t.Helper()
	state := session.New()
	state.AppendUser("Hello")
	state.Commit("Hello", "--- B ---\nHi there", time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC))
	path := filepath.Join(t.TempDir(), "chat.json")
	if err := store.Save(state, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.TrimSpace(stdout) != version {
		t.Fatalf("expected version %q, got %q", version, stdout)
	}
}

func TestChatWithoutAPIKeyFails(t *testing.T) {
	_, _, err := executeCLI(t, "chat", "--log-file", "-")
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if cfgErr.Key != config.KeyAPIKey {
		t.Fatalf("expected api_key error, got %q", cfgErr.Key)
	}
}

func TestHistoryCommandFormats(t *testing.T) {
	path := writeConversation(t)

	stdout, _, err := executeCLI(t, "history", path)
	if err != nil {
		t.Fatalf("table format failed: %v", err)
	}
	if !strings.Contains(stdout, "=== Chat History ===") || !strings.Contains(stdout, "Hello") {
		t.Fatalf("unexpected table output %q", stdout)
	}

	stdout, _, err = executeCLI(t, "history", path, "--format", "json")
	if err != nil {
		t.Fatalf("json format failed: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("expected valid json, got %v", err)
	}
	if _, ok := doc["history"]; !ok {
		t.Fatalf("expected history key in %q", stdout)
	}
}

func TestHistoryCommandExportsIntoDirectory(t *testing.T) {
	path := writeConversation(t)
	outDir := filepath.Join(t.TempDir(), "exports")

	stdout, _, err := executeCLI(t, "history", path, "--format", "md", "--out", outDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	target := filepath.Join(outDir, "chat.md")
	if !strings.Contains(stdout, "Exported to "+target) {
		t.Fatalf("unexpected output %q", stdout)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("expected export file, got %v", err)
	}
	if !strings.Contains(string(data), "# Chat History") {
		t.Fatalf("expected markdown export, got %q", data)
	}
}

func TestHistoryCommandRejectsUnknownFormat(t *testing.T) {
	path := writeConversation(t)
	_, _, err := executeCLI(t, "history", path, "--format", "csv")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestHistoryCommandMissingFile(t *testing.T) {
	_, _, err := executeCLI(t, "history", filepath.Join(t.TempDir(), "nope.json"))
	var perr *store.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyramid.toml")

	stdout, _, err := executeCLI(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(stdout, "Wrote "+path) {
		t.Fatalf("unexpected output %q", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file, got %v", err)
	}
	if !strings.Contains(string(data), "max_tokens = 2048") {
		t.Fatalf("expected default max_tokens in %q", data)
	}

	if _, _, err := executeCLI(t, "config", "init", "--path", path); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected existing file to be kept, got %v", err)
	}
}
