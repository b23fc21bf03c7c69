package roster

import (
	"context"
	"strings"

	"github.com/agentstation/utc"

	"github.com/nexa-labs/crosscheck/internal/transport"
)

// API resource paths under the public API root.
const (
	resourcePeople      = "People"
	resourceClients     = "Clients"
	resourceProjects    = "Projects"
	resourceAllocations = "ProjectPersonAllocations"
)

// apiPerson is a People row as the roster API reports it.
type apiPerson struct {
	ID         int    `json:"ID"`
	FirstName  string `json:"FirstName"`
	LastName   string `json:"LastName"`
	IsArchived bool   `json:"IsArchived"`
	HasLicense bool   `json:"HasLicense"`
	EndDate    string `json:"EndDate"`
}

// FullName joins first and last name, tolerating either being empty.
func (p apiPerson) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// apiClient is a Clients row.
type apiClient struct {
	ID         int    `json:"ID"`
	Name       string `json:"Name"`
	Code       string `json:"Code"`
	IsArchived bool   `json:"IsArchived"`
}

// apiProject is a Projects row.
type apiProject struct {
	ID         int    `json:"ID"`
	Name       string `json:"Name"`
	Code       string `json:"Code"`
	ClientID   int    `json:"ClientID"`
	StartDate  string `json:"StartDate"`
	EndDate    string `json:"EndDate"`
	IsArchived bool   `json:"IsArchived"`
}

// apiAllocation is a ProjectPersonAllocations row.
type apiAllocation struct {
	ID           int     `json:"ID"`
	PersonID     int     `json:"PersonID"`
	ProjectID    int     `json:"ProjectID"`
	StartDate    string  `json:"StartDate"`
	EndDate      string  `json:"EndDate"`
	HoursPerDay  float64 `json:"HoursPerDay"`
	BusinessDays float64 `json:"BusinessDays"`
	IsArchived   bool    `json:"IsArchived"`
}

// fetchList retrieves one resource collection. The API wraps every
// collection in a "value" array.
func fetchList[T any](ctx context.Context, client *transport.Client, url string) ([]T, error) {
	var envelope struct {
		Value []T `json:"value"`
	}
	if err := client.GetJSON(ctx, url, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// dateLayouts are the timestamp shapes the API has been seen to emit.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses an API date string. Empty or unparseable values
// return the zero time, which downstream treats as open-ended.
func parseDate(s string) utc.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return utc.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := utc.Parse(layout, s); err == nil {
			return t
		}
	}
	return utc.Time{}
}

// parseDatePtr is parseDate for optional fields, mapping absent dates
// to nil.
func parseDatePtr(s string) *utc.Time {
	t := parseDate(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
