package compliance

import "time"

// Status is the lifecycle label of a client compliance record.
type Status string

const (
	StatusUnderReview Status = "UNDER REVIEW"
	StatusAmended     Status = "AMENDED"
	StatusMonitored   Status = "MONITORED"
	StatusLive        Status = "LIVE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnderReview, StatusAmended, StatusMonitored, StatusLive:
		return true
	default:
		return false
	}
}

// Record is a read-only snapshot of one client's compliance state.
// CompanyName, Country and Status are carried for display and ignored by the summarizer.
type Record struct {
	ClientID      string
	CompanyName   string
	Country       string
	NewRegulation string
	Deadline      *time.Time
	Status        Status
}
