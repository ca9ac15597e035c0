package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"juris-backend/internal/clients"
	"juris-backend/internal/compliance"
	"juris-backend/internal/shared/metrics"
)

// ClientSource lists every client profile.
type ClientSource interface {
	All(ctx context.Context) ([]clients.Client, error)
}

// Service computes the dashboard summary over the stored clients.
type Service struct {
	Clients ClientSource
	Rules   compliance.Rules
	// ReferenceDate pins the summary date when no explicit date is requested.
	ReferenceDate *time.Time
	Now           func() time.Time
}

// NewService constructs a Service using the default summarizer rules and the wall clock.
func NewService(source ClientSource, referenceDate *time.Time) *Service {
	return &Service{
		Clients:       source,
		Rules:         compliance.DefaultRules(),
		ReferenceDate: referenceDate,
		Now:           time.Now,
	}
}

// Summary is the dashboard view of the client portfolio.
type Summary struct {
	Total                 int                `json:"totalClients"`
	Impacted              int                `json:"impactedClients"`
	ActiveRegulations     int                `json:"activeRegulations"`
	Urgency               compliance.Urgency `json:"urgency"`
	UrgencyWeight         float64            `json:"urgencyWeight"`
	UrgencyColor          string             `json:"urgencyColor"`
	ImpactedFraction      float64            `json:"impactedFraction"`
	NewRegulationFraction float64            `json:"newRegulationFraction"`
	ImpactedPercent       float64            `json:"impactedPercent"`
	NewRegulationPercent  float64            `json:"newRegulationPercent"`
	ReferenceDate         time.Time          `json:"-"`
}

// Summary loads all clients and summarizes them as of asOf, the configured
// reference date, or today (UTC), in that order of preference.
func (s *Service) Summary(ctx context.Context, asOf *time.Time) (Summary, error) {
	list, err := s.Clients.All(ctx)
	if err != nil {
		return Summary{}, err
	}

	ref := s.referenceDate(asOf)
	sum := s.Rules.Summarize(clients.Records(list), ref)
	metrics.IncSummary(sum.Urgency.String())

	return Summary{
		Total:                 sum.Total,
		Impacted:              sum.Impacted,
		ActiveRegulations:     sum.ActiveRegulations,
		Urgency:               sum.Urgency,
		UrgencyWeight:         sum.Urgency.Weight(),
		UrgencyColor:          sum.Urgency.Color(),
		ImpactedFraction:      sum.ImpactedFraction,
		NewRegulationFraction: sum.NewRegulationFraction,
		ImpactedPercent:       percent(sum.ImpactedFraction),
		NewRegulationPercent:  percent(sum.NewRegulationFraction),
		ReferenceDate:         ref,
	}, nil
}

func (s *Service) referenceDate(asOf *time.Time) time.Time {
	switch {
	case asOf != nil:
		return *asOf
	case s.ReferenceDate != nil:
		return *s.ReferenceDate
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func percent(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Shift(2).Round(2).InexactFloat64()
}
