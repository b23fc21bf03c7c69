package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/nexa-labs/crosscheck/pkg/records"
)

// employeeModel is an employees row. Scenario tables carry a
// simulation_id discriminator and soft-delete via deleted_at; deleted
// rows are kept with the flag so downstream filters decide.
type employeeModel struct {
	ID           int        `gorm:"column:id"`
	SimulationID int        `gorm:"column:simulation_id"`
	FirstName    string     `gorm:"column:first_name"`
	LastName     string     `gorm:"column:last_name"`
	EndDate      *time.Time `gorm:"column:end_date"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

// TableName returns the table name for GORM.
func (employeeModel) TableName() string {
	return "employees"
}

// FullName joins first and last name, tolerating either being empty.
func (m employeeModel) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// ToRecord converts the row to the shared person shape.
func (m employeeModel) ToRecord() records.Person {
	return records.Person{
		Name:    m.FullName(),
		Deleted: m.DeletedAt != nil,
		EndDate: toUTCPtr(m.EndDate),
	}
}

// clientModel is a clients row.
type clientModel struct {
	ID           int        `gorm:"column:id"`
	SimulationID int        `gorm:"column:simulation_id"`
	Name         string     `gorm:"column:name"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

// TableName returns the table name for GORM.
func (clientModel) TableName() string {
	return "clients"
}

// ToRecord converts the row to the shared client shape.
func (m clientModel) ToRecord() records.Client {
	return records.Client{
		Name:    m.Name,
		Deleted: m.DeletedAt != nil,
	}
}

// projectModel is a projects row joined with its owning client's name.
type projectModel struct {
	ID           int        `gorm:"column:id"`
	SimulationID int        `gorm:"column:simulation_id"`
	Name         string     `gorm:"column:name"`
	ClientID     *int       `gorm:"column:client_id"`
	ClientName   *string    `gorm:"column:client_name"`
	StartDate    *time.Time `gorm:"column:start_date"`
	EndDate      *time.Time `gorm:"column:end_date"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

// ToRecord converts the row to the shared project shape.
func (m projectModel) ToRecord() records.Project {
	client := ""
	if m.ClientName != nil {
		client = *m.ClientName
	}
	return records.Project{
		Name:    m.Name,
		Client:  client,
		Start:   toUTCPtr(m.StartDate),
		End:     toUTCPtr(m.EndDate),
		Deleted: m.DeletedAt != nil,
	}
}

// allocationRow is the joined allocation row the loader scans: the
// allocation's own columns plus the names resolved through employees,
// projects, and the project's client.
type allocationRow struct {
	EmployeeID        *int       `gorm:"column:employee_id"`
	ProjectID         *int       `gorm:"column:project_id"`
	StartDate         *time.Time `gorm:"column:start_date"`
	EndDate           *time.Time `gorm:"column:end_date"`
	AllocationPercent float64    `gorm:"column:allocation_percent"`
	FirstName         *string    `gorm:"column:first_name"`
	LastName          *string    `gorm:"column:last_name"`
	ProjectName       *string    `gorm:"column:project_name"`
	ClientName        *string    `gorm:"column:client_name"`
}

// personName resolves the row's person, falling back to a placeholder
// when the employee join found no row.
func (r allocationRow) personName() string {
	name := strings.TrimSpace(deref(r.FirstName) + " " + deref(r.LastName))
	if name != "" {
		return name
	}
	if r.EmployeeID != nil {
		return fmt.Sprintf("Unknown Employee %d", *r.EmployeeID)
	}
	return ""
}

// projectName resolves the row's project with the same fallback rule.
func (r allocationRow) projectName() string {
	if name := deref(r.ProjectName); name != "" {
		return name
	}
	if r.ProjectID != nil {
		return fmt.Sprintf("Unknown Project %d", *r.ProjectID)
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toUTCPtr(t *time.Time) *utc.Time {
	if t == nil {
		return nil
	}
	u := utc.New(*t)
	return &u
}
