// Package planner loads workforce allocations from the planner system's
// Postgres database.
//
// Planner data is scenario-scoped: every table carries a simulation_id
// discriminator and a run reads exactly one scenario. The loader issues
// one joined query for allocation rows (allocations against employees,
// projects, and the project's owning client) filtered to the scenario
// and the reporting window, plus per-table queries for the reference
// entities the entity diff needs.
package planner

import (
	"context"
	"database/sql"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentstation/utc"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
	"github.com/nexa-labs/crosscheck/pkg/records"
)

// scenarioTables are checked in order when auto-detecting the newest
// scenario id.
var scenarioTables = []string{"allocations", "employees", "projects"}

// Config carries the connection settings for the planner database.
type Config struct {
	DSN      string // Postgres connection string
	Scenario int    // simulation id to read; 0 auto-detects the newest
}

// Source loads and normalizes planner data. It implements
// sources.Source.
type Source struct {
	cfg Config
	db  *gorm.DB
}

// Option configures a Source.
type Option func(*Source)

// WithDB substitutes a pre-opened GORM handle, skipping the DSN dial.
func WithDB(db *gorm.DB) Option {
	return func(s *Source) {
		s.db = db
	}
}

// New creates a planner source. Unless WithDB is given, the database is
// dialed immediately so connection problems surface at construction.
func New(cfg Config, opts ...Option) (*Source, error) {
	s := &Source{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.db == nil {
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		})
		if err != nil {
			return nil, &errors.QueryError{
				System:  records.SystemPlanner.String(),
				Message: "failed to connect",
				Err:     err,
			}
		}
		s.db = db
	}
	return s, nil
}

// System implements the sources.Source interface.
func (s *Source) System() records.System {
	return records.SystemPlanner
}

// Fetch implements the sources.Source interface. Allocation rows are
// filtered to the scenario and window in the query itself; reference
// entities are scenario-filtered only, flags intact.
func (s *Source) Fetch(ctx context.Context, window records.Window) (*records.Dataset, error) {
	log := logging.Ctx(ctx)

	scenario := s.cfg.Scenario
	if scenario == 0 {
		detected, err := s.detectScenario(ctx)
		if err != nil {
			return nil, err
		}
		scenario = detected
		log.Debug().Int("scenario", scenario).Msg("auto-detected newest planner scenario")
	}

	allocations, err := s.loadAllocations(ctx, scenario, window)
	if err != nil {
		return nil, err
	}
	people, err := s.loadEmployees(ctx, scenario)
	if err != nil {
		return nil, err
	}
	clients, err := s.loadClients(ctx, scenario)
	if err != nil {
		return nil, err
	}
	projects, err := s.loadProjects(ctx, scenario)
	if err != nil {
		return nil, err
	}

	dataset := &records.Dataset{
		System:      records.SystemPlanner,
		Allocations: allocations,
		People:      people,
		Clients:     clients,
		Projects:    projects,
		FetchedAt:   utc.Now(),
	}

	log.Info().
		Str("system", records.SystemPlanner.String()).
		Int("scenario", scenario).
		Int("people", len(people)).
		Int("clients", len(clients)).
		Int("projects", len(projects)).
		Int("allocations", len(allocations)).
		Msg("planner fetch complete")
	return dataset, nil
}

// Cleanup implements the sources.Source interface, closing the
// underlying connection pool.
func (s *Source) Cleanup() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// detectScenario returns the largest simulation id present, checking
// the allocation table first and falling back through the others.
func (s *Source) detectScenario(ctx context.Context) (int, error) {
	for _, table := range scenarioTables {
		var max sql.NullInt64
		err := s.db.WithContext(ctx).
			Table(table).
			Select("MAX(simulation_id)").
			Where("simulation_id IS NOT NULL").
			Scan(&max).Error
		if err != nil {
			return 0, &errors.QueryError{
				System:  records.SystemPlanner.String(),
				Table:   table,
				Message: "scenario detection failed",
				Err:     err,
			}
		}
		if max.Valid {
			return int(max.Int64), nil
		}
	}
	return 0, &errors.QueryError{
		System:  records.SystemPlanner.String(),
		Message: "no scenario ids found in any table",
	}
}

// loadAllocations runs the joined allocation query. Window overlap is
// evaluated in SQL: a row qualifies when it starts before the window
// ends and either has no end date or ends after the window starts.
func (s *Source) loadAllocations(ctx context.Context, scenario int, window records.Window) ([]records.AllocationRecord, error) {
	var rows []allocationRow
	err := s.db.WithContext(ctx).
		Table("allocations AS a").
		Select("a.employee_id, a.project_id, a.start_date, a.end_date, a.allocation_percent, "+
			"e.first_name, e.last_name, p.name AS project_name, c.name AS client_name").
		Joins("LEFT JOIN employees e ON a.employee_id = e.id").
		Joins("LEFT JOIN projects p ON a.project_id = p.id").
		Joins("LEFT JOIN clients c ON p.client_id = c.id").
		Where("a.simulation_id = ?", scenario).
		Where("a.start_date <= ? AND (a.end_date IS NULL OR a.end_date >= ?)", window.End.Time, window.Start.Time).
		Order("a.start_date, e.first_name, e.last_name").
		Scan(&rows).Error
	if err != nil {
		return nil, &errors.QueryError{
			System:  records.SystemPlanner.String(),
			Table:   "allocations",
			Message: "allocation query failed",
			Err:     err,
		}
	}
	return s.normalizeAllocations(ctx, rows, scenario), nil
}

// normalizeAllocations converts scanned rows to the shared shape and
// applies the percent-scale correction: some scenarios store quantities
// as 0-1 fractions, detected when no row in the batch exceeds 1.0.
func (s *Source) normalizeAllocations(ctx context.Context, rows []allocationRow, scenario int) []records.AllocationRecord {
	unit := records.SystemPlanner.DefaultUnit()
	scenarioLabel := scenarioLabel(scenario)

	out := make([]records.AllocationRecord, 0, len(rows))
	maxQuantity := 0.0
	for _, row := range rows {
		quantity := row.AllocationPercent
		if quantity > maxQuantity {
			maxQuantity = quantity
		}
		rec := records.AllocationRecord{
			System:   records.SystemPlanner,
			Person:   row.personName(),
			Client:   deref(row.ClientName),
			Project:  row.projectName(),
			Quantity: quantity,
			Unit:     unit,
			Scenario: scenarioLabel,
		}
		if row.StartDate != nil {
			rec.Start = utc.New(*row.StartDate)
		}
		if row.EndDate != nil {
			rec.End = utc.New(*row.EndDate)
		}
		out = append(out, rec)
	}

	if len(out) > 0 && maxQuantity <= constants.FractionalPercentCeiling {
		for i := range out {
			out[i].Quantity *= constants.PercentScale
		}
		logging.Ctx(ctx).Debug().
			Float64("max_quantity", maxQuantity).
			Msg("planner quantities stored as fractions, scaled to percent")
	}
	return out
}

func (s *Source) loadEmployees(ctx context.Context, scenario int) ([]records.Person, error) {
	var models []employeeModel
	err := s.db.WithContext(ctx).
		Where("simulation_id = ?", scenario).
		Order("first_name, last_name").
		Find(&models).Error
	if err != nil {
		return nil, &errors.QueryError{
			System:  records.SystemPlanner.String(),
			Table:   "employees",
			Message: "employee query failed",
			Err:     err,
		}
	}
	out := make([]records.Person, 0, len(models))
	for _, m := range models {
		out = append(out, m.ToRecord())
	}
	return out, nil
}

func (s *Source) loadClients(ctx context.Context, scenario int) ([]records.Client, error) {
	var models []clientModel
	err := s.db.WithContext(ctx).
		Where("simulation_id = ?", scenario).
		Order("name").
		Find(&models).Error
	if err != nil {
		return nil, &errors.QueryError{
			System:  records.SystemPlanner.String(),
			Table:   "clients",
			Message: "client query failed",
			Err:     err,
		}
	}
	out := make([]records.Client, 0, len(models))
	for _, m := range models {
		out = append(out, m.ToRecord())
	}
	return out, nil
}

func (s *Source) loadProjects(ctx context.Context, scenario int) ([]records.Project, error) {
	var models []projectModel
	err := s.db.WithContext(ctx).
		Table("projects AS p").
		Select("p.id, p.simulation_id, p.name, p.client_id, p.start_date, p.end_date, p.deleted_at, "+
			"c.name AS client_name").
		Joins("LEFT JOIN clients c ON p.client_id = c.id").
		Where("p.simulation_id = ?", scenario).
		Order("p.name").
		Scan(&models).Error
	if err != nil {
		return nil, &errors.QueryError{
			System:  records.SystemPlanner.String(),
			Table:   "projects",
			Message: "project query failed",
			Err:     err,
		}
	}
	out := make([]records.Project, 0, len(models))
	for _, m := range models {
		out = append(out, m.ToRecord())
	}
	return out, nil
}

// scenarioLabel renders the scenario id for record tagging.
func scenarioLabel(scenario int) string {
	return strconv.Itoa(scenario)
}
