// Package roster fetches workforce allocations from the roster system's
// HTTP API and normalizes them into the shared record shape.
//
// The roster API exposes People, Clients, Projects, and
// ProjectPersonAllocations as separate collections related by numeric
// ids. Fetch retrieves all four, joins allocations to their person,
// project, and owning client, applies the active-record filters the
// reconciliation expects, and collapses exact duplicate assignment rows.
package roster

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/nexa-labs/crosscheck/internal/transport"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// Config carries the connection settings for the roster API.
type Config struct {
	BaseURL  string // API root, e.g. https://app.example.net
	AuthURL  string // OAuth2 token endpoint
	Origin   string // Origin header value the API requires
	Username string
	Password string
	Timezone string // IANA zone the account reports in
}

// Source fetches and normalizes roster data. It implements
// sources.Source.
type Source struct {
	cfg      Config
	client   *transport.Client
	endpoint *transport.Endpoint
	tokens   *transport.TokenSource

	// clientDelimiter, when non-empty, derives the client name from
	// project names shaped like "CLIENT<delim>PROJECT" instead of the
	// client table join.
	clientDelimiter string
}

// Option configures a Source.
type Option func(*Source)

// WithClientFromProject derives client names by splitting project names
// on the given delimiter, keeping the first segment. Used for tenants
// whose project naming convention embeds the client.
func WithClientFromProject(delimiter string) Option {
	return func(s *Source) {
		s.clientDelimiter = delimiter
	}
}

// WithTransportClient substitutes the HTTP client used for API calls.
func WithTransportClient(c *transport.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a roster source for the given connection settings.
func New(cfg Config, opts ...Option) *Source {
	system := records.SystemRoster.String()
	tokens := transport.NewTokenSource(system, transport.LoginConfig{
		URL:      cfg.AuthURL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timezone: cfg.Timezone,
		Origin:   cfg.Origin,
	})

	clientOpts := []transport.ClientOption{}
	if cfg.Origin != "" {
		clientOpts = append(clientOpts, transport.WithHeader("Origin", cfg.Origin))
	}

	s := &Source{
		cfg:      cfg,
		client:   transport.New(system, &transport.BearerAuth{}, tokens, clientOpts...),
		endpoint: transport.NewEndpoint(cfg.BaseURL),
		tokens:   tokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// System implements the sources.Source interface.
func (s *Source) System() records.System {
	return records.SystemRoster
}

// Fetch implements the sources.Source interface. The roster API has no
// server-side window filter, so the full dataset is returned and the
// caller scopes it to the reporting window.
func (s *Source) Fetch(ctx context.Context, _ records.Window) (*records.Dataset, error) {
	log := logging.Ctx(ctx)

	people, err := fetchResource[apiPerson](ctx, s, resourcePeople)
	if err != nil {
		return nil, err
	}
	clients, err := fetchResource[apiClient](ctx, s, resourceClients)
	if err != nil {
		return nil, err
	}
	projects, err := fetchResource[apiProject](ctx, s, resourceProjects)
	if err != nil {
		return nil, err
	}
	allocations, err := fetchResource[apiAllocation](ctx, s, resourceAllocations)
	if err != nil {
		return nil, err
	}

	dataset := s.normalize(ctx, people, clients, projects, allocations)
	dataset.FetchedAt = utc.Now()

	log.Info().
		Str("system", records.SystemRoster.String()).
		Int("people", len(people)).
		Int("clients", len(clients)).
		Int("projects", len(projects)).
		Int("allocations_fetched", len(allocations)).
		Int("allocations_kept", len(dataset.Allocations)).
		Msg("roster fetch complete")
	return dataset, nil
}

// Cleanup implements the sources.Source interface. The roster source
// holds no resources beyond the token cache.
func (s *Source) Cleanup() error {
	s.tokens.Invalidate()
	return nil
}

func fetchResource[T any](ctx context.Context, s *Source, name string) ([]T, error) {
	url, err := s.endpoint.Resource("public", "v1", name)
	if err != nil {
		return nil, err
	}
	return fetchList[T](ctx, s.client, url)
}
