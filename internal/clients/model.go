package clients

import (
	"time"

	"juris-backend/internal/compliance"
)

// Client is a monitored client profile.
type Client struct {
	ID            int64
	ClientID      string
	CompanyName   string
	Country       string
	CountryCode   string
	NewRegulation string
	Deadline      *time.Time
	Status        compliance.Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Record returns the summarizer view of the client.
func (c Client) Record() compliance.Record {
	var deadline *time.Time
	if c.Deadline != nil {
		d := *c.Deadline
		deadline = &d
	}
	return compliance.Record{
		ClientID:      c.ClientID,
		CompanyName:   c.CompanyName,
		Country:       c.Country,
		NewRegulation: c.NewRegulation,
		Deadline:      deadline,
		Status:        c.Status,
	}
}

// Records maps clients to summarizer records, preserving order.
func Records(list []Client) []compliance.Record {
	out := make([]compliance.Record, 0, len(list))
	for _, c := range list {
		out = append(out, c.Record())
	}
	return out
}

// Sort keys accepted by List.
const (
	SortClientID      = "clientId"
	SortCompanyName   = "companyName"
	SortCountry       = "country"
	SortNewRegulation = "newRegulation"
	SortDeadline      = "deadline"
	SortStatus        = "status"
)

// ListParams controls ordering and paging. Limit 0 returns every row.
type ListParams struct {
	Sort   string
	Order  string
	Limit  int
	Offset int
}

// Descending reports whether the list is ordered high to low.
func (p ListParams) Descending() bool {
	return p.Order == "desc"
}
