package app

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadEnvFilesLocalOverrides verifies that a variable set in both
// files takes its value from .env.local.
func TestLoadEnvFilesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(".env", "CROSSCHECK_ENVTEST=shared\n")
	write(".env.local", "CROSSCHECK_ENVTEST=local\n")

	t.Chdir(dir)
	os.Unsetenv("CROSSCHECK_ENVTEST")
	t.Cleanup(func() { os.Unsetenv("CROSSCHECK_ENVTEST") })

	loadEnvFiles()

	if got := os.Getenv("CROSSCHECK_ENVTEST"); got != "local" {
		t.Errorf("CROSSCHECK_ENVTEST = %q, want %q", got, "local")
	}
}

// TestLoadEnvFilesSharedApplies verifies .env still applies when no
// local file is present.
func TestLoadEnvFilesSharedApplies(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CROSSCHECK_ENVTEST=shared\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)
	os.Unsetenv("CROSSCHECK_ENVTEST")
	t.Cleanup(func() { os.Unsetenv("CROSSCHECK_ENVTEST") })

	loadEnvFiles()

	if got := os.Getenv("CROSSCHECK_ENVTEST"); got != "shared" {
		t.Errorf("CROSSCHECK_ENVTEST = %q, want %q", got, "shared")
	}
}
