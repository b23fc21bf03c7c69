package crosscheck

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/nexa-labs/crosscheck/internal/sources"
	"github.com/nexa-labs/crosscheck/pkg/diff"
	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
	"github.com/nexa-labs/crosscheck/pkg/match"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// RunOption adjusts a single reconciliation pass.
type RunOption func(*RunOptions)

// RunOptions are the per-pass settings. The zero value reconciles the
// current calendar month for everyone, reporting all entity kinds.
type RunOptions struct {
	// Window is the reporting period. Zero means the current month.
	Window records.Window

	// Person scopes the pass to one person, compared case-insensitively.
	// Empty means everyone.
	Person string

	// Kinds limits entity gap reporting to the named kinds. Empty means
	// every kind.
	Kinds []diff.Kind

	// Timeout bounds the whole pass, source fetches included. Zero means
	// no timeout.
	Timeout time.Duration
}

// NewRunOptions builds pass settings from defaults and the given overrides.
func NewRunOptions(opts ...RunOption) *RunOptions {
	options := &RunOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// Validate checks the settings before any remote work happens.
func (o *RunOptions) Validate() error {
	for _, kind := range o.Kinds {
		if !kind.IsValid() {
			return &errors.ValidationError{Field: "kinds", Value: kind.String(), Message: "unknown entity kind"}
		}
	}
	if !o.Window.Start.IsZero() && o.Window.End.Time.Before(o.Window.Start.Time) {
		return &errors.ValidationError{Field: "window", Value: o.Window.String(), Message: "window ends before it starts"}
	}
	return nil
}

// RunWithWindow scopes the pass to a reporting window.
func RunWithWindow(w records.Window) RunOption {
	return func(o *RunOptions) {
		o.Window = w
	}
}

// RunWithPerson restricts matching and person gaps to one person.
func RunWithPerson(name string) RunOption {
	return func(o *RunOptions) {
		o.Person = strings.TrimSpace(name)
	}
}

// RunWithKinds limits entity gap reporting to the given kinds.
func RunWithKinds(kinds ...diff.Kind) RunOption {
	return func(o *RunOptions) {
		o.Kinds = kinds
	}
}

// RunWithTimeout bounds the whole pass.
func RunWithTimeout(d time.Duration) RunOption {
	return func(o *RunOptions) {
		o.Timeout = d
	}
}

// Run executes one reconciliation pass against the registered sources.
func (r *runner) Run(ctx context.Context, opts ...RunOption) (*Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := NewRunOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	// Step 3: Resolve the reporting window
	window := options.Window
	if window.Start.IsZero() {
		now := utc.Now()
		window = records.MonthWindow(now.Year(), now.Month())
		logging.Debug().Str("window", window.String()).Msg("No window given, using current month")
	}

	// Step 4: Load the mapping configuration
	mapFile, err := r.mappingFile()
	if err != nil {
		return nil, err
	}
	clients := mapFile.ClientMap()
	rules := mapFile.ProjectRules()
	sentinel := r.config.sentinel
	if sentinel == "" {
		sentinel = mapFile.Options.Sentinel()
	}

	// Step 5: Check both sources are registered
	rosterSrc, plannerSrc, err := r.pair()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := r.sources.Cleanup(); cleanupErr != nil {
			logging.Warn().Err(cleanupErr).Msg("Source cleanup errors occurred")
		}
	}()

	// Step 6: Fetch both datasets concurrently
	roster, planner, err := fetch(ctx, window, rosterSrc, plannerSrc)
	if err != nil {
		return nil, err
	}

	// Step 7: Apply the person filter
	if options.Person != "" {
		roster = filterPerson(roster, options.Person)
		planner = filterPerson(planner, options.Person)
	}

	// Step 8: Match composite keys from both directions
	matcher := match.NewMatcher(clients, match.WithSentinel(sentinel))
	outcome := matcher.Match(ctx, roster.InWindow(window), planner.InWindow(window))

	// Step 9: Decompose multimatches with the project rules
	resolver := match.NewResolver(rules)
	entries, resolveStats := resolver.Resolve(ctx, outcome.Matches)
	outcome.Matches = entries

	// Step 10: Report entity gaps
	differ := diff.NewDiffer(clients, window, diff.WithSentinel(sentinel))
	var gaps []diff.Entry
	if len(options.Kinds) == 0 {
		gaps = differ.Diff(ctx, roster, planner)
	} else {
		for _, kind := range options.Kinds {
			gaps = append(gaps, differ.DiffKind(kind, roster, planner)...)
		}
	}

	// Step 11: Assemble the result
	result := newResult(window, options.Person, roster, planner, outcome, resolveStats, gaps)

	// Step 12: Log the pass summary
	logging.Info().
		Str("run_id", result.RunID).
		Str("window", window.String()).
		Int("matches", outcome.Stats.Bidirectional).
		Int("multimatch", len(outcome.Multimatches())).
		Int("resolved", resolveStats.Resolved).
		Int("unmatched_roster", len(outcome.UnmatchedRoster)).
		Int("unmatched_planner", len(outcome.UnmatchedPlanner)).
		Int("gaps", len(gaps)).
		Msg("Reconciliation completed")

	return result, nil
}

// mappingFile returns the mapping configuration for this pass. Precedence:
// injected mapping, then the configured file path, then an empty table.
func (r *runner) mappingFile() (*mapping.File, error) {
	if r.config.mapping != nil {
		return r.config.mapping, nil
	}
	if r.config.mappingPath != "" {
		return mapping.Load(r.config.mappingPath)
	}
	return &mapping.File{}, nil
}

// fetch pulls both datasets concurrently. A failure on either side cancels
// the other fetch through the group context.
func fetch(ctx context.Context, window records.Window, rosterSrc, plannerSrc sources.Source) (roster, planner *records.Dataset, err error) {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		ds, err := rosterSrc.Fetch(egCtx, window)
		if err != nil {
			return err
		}
		if err := ds.Validate(); err != nil {
			return err
		}
		roster = ds
		return nil
	})

	eg.Go(func() error {
		ds, err := plannerSrc.Fetch(egCtx, window)
		if err != nil {
			return err
		}
		if err := ds.Validate(); err != nil {
			return err
		}
		planner = ds
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	logging.Debug().
		Int("roster_allocations", len(roster.Allocations)).
		Int("planner_allocations", len(planner.Allocations)).
		Str("window", window.String()).
		Msg("Datasets fetched")

	return roster, planner, nil
}

// filterPerson returns a copy of the dataset scoped to one person's
// allocations and people entries. Client and project reference data pass
// through untouched so those gap checks keep their full context.
func filterPerson(ds *records.Dataset, person string) *records.Dataset {
	scoped := &records.Dataset{
		System:    ds.System,
		Clients:   ds.Clients,
		Projects:  ds.Projects,
		FetchedAt: ds.FetchedAt,
	}
	for _, rec := range ds.Allocations {
		if strings.EqualFold(rec.Person, person) {
			scoped.Allocations = append(scoped.Allocations, rec)
		}
	}
	for _, p := range ds.People {
		if strings.EqualFold(p.Name, person) {
			scoped.People = append(scoped.People, p)
		}
	}
	return scoped
}
