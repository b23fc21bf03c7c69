// Package match pairs workforce allocation records across the roster
// and planner systems.
//
// Records are matched on a composite key of person and client name.
// Because the two systems spell client names differently, roster keys
// are translated into planner space through the client name map and
// planner keys are translated back through its reverse. A pair counts
// as matched only when both directions agree; pairs seen from a single
// direction are reported as candidates rather than matches. Confirmed
// pairs where either system carries more than one project are marked
// MULTIMATCH and can be split into single-project entries by a
// Resolver driven by explicit project rules.
package match

import (
	"context"
	"sort"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Matcher pairs roster and planner allocation records by composite key.
// The zero value is not usable; construct with NewMatcher.
type Matcher struct {
	clients  *mapping.ClientMap
	sentinel string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithSentinel overrides the person name whose keys are treated as
// administrative noise and excluded from unmatched reporting.
func WithSentinel(person string) MatcherOption {
	return func(m *Matcher) {
		m.sentinel = person
	}
}

// NewMatcher returns a Matcher that translates client names through the
// given map. A nil map behaves like an empty one: only identical keys
// can pair up, and only from the forward direction.
func NewMatcher(clients *mapping.ClientMap, opts ...MatcherOption) *Matcher {
	if clients == nil {
		clients = mapping.NewClientMap(nil)
	}
	m := &Matcher{
		clients:  clients,
		sentinel: constants.DefaultSentinelPerson,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// identity is the person and client pair behind a composite key, kept
// alongside the key because keys cannot be split apart again.
type identity struct {
	person string
	client string
}

// side indexes one system's records by composite key.
type side struct {
	parts     map[Key]identity
	projects  map[Key]map[string]struct{}
	coercions int
}

// pair couples a roster key with a planner key.
type pair struct {
	roster  Key
	planner Key
}

// Match runs one full matching pass over the two record sets and
// returns the classified outcome. Every distinct key lands in exactly
// one of three buckets: mutually confirmed (Matches), confirmed from a
// single direction (OneWay), or unmatched. Keys belonging to the
// sentinel person are dropped from the unmatched lists. The pass is
// pure apart from logging; records are read through the context only
// for the logger.
func (m *Matcher) Match(ctx context.Context, roster, planner []records.AllocationRecord) *Outcome {
	log := logging.Ctx(ctx)

	rosterSide := indexSide(roster)
	plannerSide := indexSide(planner)

	forward := make(map[pair]struct{})
	for key, id := range rosterSide.parts {
		keys := ForwardKeys(id.person, id.client, m.clients)
		if _, ok := plannerSide.parts[keys.Mapped]; ok {
			forward[pair{roster: key, planner: keys.Mapped}] = struct{}{}
		}
	}

	backward := make(map[pair]struct{})
	for key, id := range plannerSide.parts {
		keys := BackwardKeys(id.person, id.client, m.clients)
		if !keys.OK {
			continue
		}
		if _, ok := rosterSide.parts[keys.Mapped]; ok {
			backward[pair{roster: keys.Mapped, planner: key}] = struct{}{}
		}
	}

	outcome := &Outcome{}
	matchedRoster := make(map[Key]struct{})
	matchedPlanner := make(map[Key]struct{})

	for p := range forward {
		matchedRoster[p.roster] = struct{}{}
		matchedPlanner[p.planner] = struct{}{}
		if _, confirmed := backward[p]; confirmed {
			outcome.Matches = append(outcome.Matches, m.entryFor(p, rosterSide, plannerSide))
			continue
		}
		outcome.OneWay = append(outcome.OneWay, Candidate{
			RosterKey:  p.roster,
			PlannerKey: p.planner,
			Direction:  DirectionForward,
		})
	}
	for p := range backward {
		matchedRoster[p.roster] = struct{}{}
		matchedPlanner[p.planner] = struct{}{}
		if _, confirmed := forward[p]; confirmed {
			continue // already emitted from the forward pass
		}
		outcome.OneWay = append(outcome.OneWay, Candidate{
			RosterKey:  p.roster,
			PlannerKey: p.planner,
			Direction:  DirectionBackward,
		})
	}

	outcome.UnmatchedRoster = m.unmatched(rosterSide, matchedRoster, &outcome.Stats)
	outcome.UnmatchedPlanner = m.unmatched(plannerSide, matchedPlanner, &outcome.Stats)

	SortEntries(outcome.Matches)
	SortCandidates(outcome.OneWay)
	SortKeys(outcome.UnmatchedRoster)
	SortKeys(outcome.UnmatchedPlanner)

	outcome.Stats.RosterKeys = len(rosterSide.parts)
	outcome.Stats.PlannerKeys = len(plannerSide.parts)
	outcome.Stats.Bidirectional = len(outcome.Matches)
	for _, e := range outcome.Matches {
		if e.Status == StatusMultimatch {
			outcome.Stats.Multimatch++
		}
	}
	for _, c := range outcome.OneWay {
		if c.Direction == DirectionForward {
			outcome.Stats.ForwardOnly++
		} else {
			outcome.Stats.BackwardOnly++
		}
	}
	outcome.Stats.UnmatchedRoster = len(outcome.UnmatchedRoster)
	outcome.Stats.UnmatchedPlanner = len(outcome.UnmatchedPlanner)
	outcome.Stats.NullCoercions = rosterSide.coercions + plannerSide.coercions

	if outcome.Stats.NullCoercions > 0 {
		log.Warn().
			Int("records", outcome.Stats.NullCoercions).
			Str("placeholder", constants.NullPlaceholder).
			Msg("records with a blank person or client were keyed on a placeholder and may pair with unrelated records")
	}
	log.Debug().
		Int("roster_keys", outcome.Stats.RosterKeys).
		Int("planner_keys", outcome.Stats.PlannerKeys).
		Int("bidirectional", outcome.Stats.Bidirectional).
		Int("multimatch", outcome.Stats.Multimatch).
		Int("one_way", len(outcome.OneWay)).
		Int("unmatched_roster", outcome.Stats.UnmatchedRoster).
		Int("unmatched_planner", outcome.Stats.UnmatchedPlanner).
		Msg("matching pass complete")

	return outcome
}

// entryFor assembles the confirmed entry for a mutually agreed pair.
func (m *Matcher) entryFor(p pair, rosterSide, plannerSide *side) Entry {
	entry := Entry{
		RosterKey:       p.roster,
		PlannerKey:      p.planner,
		Person:          rosterSide.parts[p.roster].person,
		RosterClient:    rosterSide.parts[p.roster].client,
		PlannerClient:   plannerSide.parts[p.planner].client,
		RosterProjects:  sortedProjects(rosterSide.projects[p.roster]),
		PlannerProjects: sortedProjects(plannerSide.projects[p.planner]),
	}
	if entry.Multimatch() {
		entry.Status = StatusMultimatch
	} else {
		entry.Status = StatusMatch
	}
	return entry
}

// unmatched collects the keys of one side that appear in no pair,
// dropping keys that belong to the sentinel person.
func (m *Matcher) unmatched(s *side, matched map[Key]struct{}, stats *Stats) []Key {
	var keys []Key
	for key, id := range s.parts {
		if _, ok := matched[key]; ok {
			continue
		}
		if m.sentinel != "" && id.person == m.sentinel {
			stats.SentinelSkipped++
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// indexSide groups one system's records by composite key, remembering
// the identity behind each key and the distinct projects booked under
// it.
func indexSide(recs []records.AllocationRecord) *side {
	s := &side{
		parts:    make(map[Key]identity),
		projects: make(map[Key]map[string]struct{}),
	}
	for _, rec := range recs {
		if Coerced(rec.Person, rec.Client) {
			s.coercions++
		}
		person := sanitizeField(rec.Person)
		client := sanitizeField(rec.Client)
		key := KeyFor(person, client)
		if _, ok := s.parts[key]; !ok {
			s.parts[key] = identity{person: person, client: client}
			s.projects[key] = make(map[string]struct{})
		}
		s.projects[key][rec.Project] = struct{}{}
	}
	return s
}

func sortedProjects(set map[string]struct{}) []string {
	projects := make([]string, 0, len(set))
	for p := range set {
		projects = append(projects, p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return lessFold(projects[i], projects[j])
	})
	return projects
}
