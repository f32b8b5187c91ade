package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shepherdjerred/conductor/pkg/config"
	"github.com/shepherdjerred/conductor/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conductor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
repo: shepherdjerred/monorepo
environment: production
checks:
  - name: compliance checks
    command: ["bun", "run", "check:compliance"]
    blocking: true
  - name: dependency audit
    command: ["bun", "audit"]
    blocking: false
deploys:
  - name: Webring docs
    command: ["bun", "run", "deploy:webring"]
    versionKey: ghcr.io/shepherdjerred/webring-docs
release:
  branch: main
  versionsFile: versions.yaml
  binaryProjects: [clauderon, multiplexer]
`)

	cfg, err := config.NewManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != types.EnvironmentProduction {
		t.Errorf("expected production environment, got %s", cfg.Environment)
	}
	if len(cfg.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(cfg.Checks))
	}
	if !cfg.Checks[0].Blocking || cfg.Checks[1].Blocking {
		t.Error("blocking flags not parsed")
	}
	if cfg.Deploys[0].VersionKey != "ghcr.io/shepherdjerred/webring-docs" {
		t.Errorf("versionKey not parsed: %q", cfg.Deploys[0].VersionKey)
	}
	if cfg.Release == nil || len(cfg.Release.BinaryProjects) != 2 {
		t.Error("release config not parsed")
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, `{"version": "1.0", "repo": "shepherdjerred/monorepo"}`)

	cfg, err := config.NewManager().LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != types.EnvironmentDevelopment {
		t.Errorf("expected development default, got %s", cfg.Environment)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing version", `repo: shepherdjerred/monorepo`},
		{"missing repo", `version: "1.0"`},
		{"unknown environment", "version: \"1.0\"\nrepo: a/b\nenvironment: staging"},
		{"check without command", "version: \"1.0\"\nrepo: a/b\nchecks:\n  - name: lint"},
		{"duplicate deploy names", "version: \"1.0\"\nrepo: a/b\ndeploys:\n  - name: x\n    command: [a]\n  - name: x\n    command: [b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := config.NewManager().LoadConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := config.NewManager().LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
