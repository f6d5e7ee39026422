//go:build integration

package main

import (
	"os/exec"
	"strings"
	"testing"
)

// TestBinaryVersion_MatchesGitTag checks that release builds carry the git tag.
// Run with: go test -tags=integration ./cmd/classpulse -v
func TestBinaryVersion_MatchesGitTag(t *testing.T) {
	output, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		t.Skipf("Skipping test: git not available or not a git repo: %v", err)
	}
	gitVersion := strings.TrimSpace(string(output))

	versionOutput, _, _ := runCLISimple(t, "--version")
	parts := strings.Fields(versionOutput)
	if len(parts) < 3 {
		t.Fatalf("unexpected version output format: %s", versionOutput)
	}
	binaryVersion := parts[2] // "classpulse version v0.2.0" -> "v0.2.0"

	if binaryVersion != gitVersion {
		t.Errorf("Binary version %q does not match git tag %q.\n\nBuild with:\n  go build -ldflags=\"-X main.version=$(git describe --tags --always --dirty)\" ./cmd/classpulse", binaryVersion, gitVersion)
	}
}
