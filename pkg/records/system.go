package records

// System identifies which record-keeping system a record came from.
type System string

// The two systems reconciled against each other.
const (
	// SystemRoster is the staffing SaaS tracking allocations in hours per day.
	SystemRoster System = "roster"

	// SystemPlanner is the scenario-planning database tracking allocations
	// as percentages of capacity.
	SystemPlanner System = "planner"
)

// String returns the string representation of a System.
func (s System) String() string {
	return string(s)
}

// IsValid reports whether the system is one of the known systems.
func (s System) IsValid() bool {
	switch s {
	case SystemRoster, SystemPlanner:
		return true
	default:
		return false
	}
}

// Other returns the opposite system.
func (s System) Other() System {
	switch s {
	case SystemRoster:
		return SystemPlanner
	case SystemPlanner:
		return SystemRoster
	default:
		return s
	}
}

// AllSystems returns both systems in reconciliation order (roster first).
func AllSystems() []System {
	return []System{SystemRoster, SystemPlanner}
}

// QuantityUnit describes how an allocation quantity is expressed.
type QuantityUnit string

// Allocation quantity units. The two systems never share a unit; quantities
// are carried through for reporting, not compared.
const (
	// UnitHoursPerDay is the roster unit (e.g. 4.5 hours per day).
	UnitHoursPerDay QuantityUnit = "hours_per_day"

	// UnitPercent is the planner unit (percentage of full capacity).
	UnitPercent QuantityUnit = "percent"
)

// String returns the string representation of a QuantityUnit.
func (u QuantityUnit) String() string {
	return string(u)
}

// IsValid reports whether the unit is one of the known units.
func (u QuantityUnit) IsValid() bool {
	switch u {
	case UnitHoursPerDay, UnitPercent:
		return true
	default:
		return false
	}
}

// Label returns the human-readable unit suffix used in reports.
func (u QuantityUnit) Label() string {
	switch u {
	case UnitHoursPerDay:
		return "h/day"
	case UnitPercent:
		return "%"
	default:
		return string(u)
	}
}

// DefaultUnit returns the unit a system expresses its quantities in.
func (s System) DefaultUnit() QuantityUnit {
	if s == SystemPlanner {
		return UnitPercent
	}
	return UnitHoursPerDay
}
