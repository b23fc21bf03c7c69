package cmd

import (
	"testing"

	"github.com/nexa-labs/crosscheck/internal/config"
	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"person", "client"})
	if err != nil {
		t.Fatalf("parseKinds() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != diff.KindPerson || kinds[1] != diff.KindClient {
		t.Errorf("parseKinds() = %v", kinds)
	}

	if _, err := parseKinds([]string{"teams"}); err == nil {
		t.Error("parseKinds() accepted an unknown kind")
	}

	kinds, err = parseKinds(nil)
	if err != nil {
		t.Fatalf("parseKinds(nil) error = %v", err)
	}
	if len(kinds) != 0 {
		t.Errorf("parseKinds(nil) = %v, want empty", kinds)
	}
}

func TestResolveWindow(t *testing.T) {
	cfg := &config.Config{}

	// Flag value wins over config.
	cfg.Run.Window = "June 2025"
	w, err := resolveWindow("July 2025", cfg)
	if err != nil {
		t.Fatalf("resolveWindow() error = %v", err)
	}
	if w.String() != "July 2025" {
		t.Errorf("window = %q, want %q", w.String(), "July 2025")
	}

	// Config value applies when the flag is empty.
	w, err = resolveWindow("", cfg)
	if err != nil {
		t.Fatalf("resolveWindow() error = %v", err)
	}
	if w.String() != "June 2025" {
		t.Errorf("window = %q, want %q", w.String(), "June 2025")
	}

	// Neither set leaves the window zero for the runner to default.
	cfg.Run.Window = ""
	w, err = resolveWindow("", cfg)
	if err != nil {
		t.Fatalf("resolveWindow() error = %v", err)
	}
	if !w.Start.IsZero() {
		t.Errorf("window = %v, want zero", w)
	}

	if _, err := resolveWindow("Smarch 2025", cfg); err == nil {
		t.Error("resolveWindow() accepted an invalid window")
	}
}

func TestBuildSourcesSnapshot(t *testing.T) {
	srcs, err := buildSources(&config.Config{}, t.TempDir())
	if err != nil {
		t.Fatalf("buildSources() error = %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("buildSources() returned %d sources, want 2", len(srcs))
	}
	if srcs[0].System() != records.SystemRoster || srcs[1].System() != records.SystemPlanner {
		t.Errorf("systems = %v, %v", srcs[0].System(), srcs[1].System())
	}
}

func TestBuildSourcesLiveRequiresCredentials(t *testing.T) {
	// No roster credentials configured: live construction must refuse
	// before any network work.
	if _, err := buildSources(&config.Config{}, ""); err == nil {
		t.Error("buildSources() built live sources without credentials")
	}
}

func TestGapClients(t *testing.T) {
	gaps := []diff.Entry{
		{System: records.SystemRoster, Kind: diff.KindClient, Name: "Acme"},
		{System: records.SystemPlanner, Kind: diff.KindClient, Name: "ACM"},
		{System: records.SystemRoster, Kind: diff.KindPerson, Name: "J. Doe"},
	}
	rosterClients, plannerClients := gapClients(gaps)
	if len(rosterClients) != 1 || rosterClients[0] != "Acme" {
		t.Errorf("rosterClients = %v", rosterClients)
	}
	if len(plannerClients) != 1 || plannerClients[0] != "ACM" {
		t.Errorf("plannerClients = %v", plannerClients)
	}
}
