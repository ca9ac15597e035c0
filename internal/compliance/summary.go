package compliance

import (
	"time"

	"github.com/hashicorp/go-set/v2"
)

// NotApplicable marks a record with no new regulation at all.
const NotApplicable = "N/A"

const day = 24 * time.Hour

// Rules holds the sentinel labels and deadline thresholds used by the summarizer.
type Rules struct {
	// Sentinels are NewRegulation values that never name an active regulation.
	Sentinels []string
	// HighWithinDays and MediumWithinDays are inclusive upper bounds on days until a deadline.
	HighWithinDays   float64
	MediumWithinDays float64
}

// DefaultRules returns the canonical sentinel set and the 90/180 day thresholds.
func DefaultRules() Rules {
	return Rules{
		Sentinels:        []string{NotApplicable, string(StatusUnderReview), string(StatusMonitored)},
		HighWithinDays:   90,
		MediumWithinDays: 180,
	}
}

// Summary is the aggregate view over a collection of records.
type Summary struct {
	Total                 int
	Impacted              int
	ActiveRegulations     int
	Urgency               Urgency
	ImpactedFraction      float64
	NewRegulationFraction float64
}

// CountImpactedClients counts records with a regulation other than N/A and a deadline.
func CountImpactedClients(records []Record) int {
	return DefaultRules().CountImpactedClients(records)
}

// CountActiveNewRegulations counts distinct non-sentinel regulation labels.
func CountActiveNewRegulations(records []Record) int {
	return DefaultRules().CountActiveNewRegulations(records)
}

// ClassifyUrgency derives the overall urgency as of referenceDate.
func ClassifyUrgency(records []Record, referenceDate time.Time) Urgency {
	return DefaultRules().ClassifyUrgency(records, referenceDate)
}

// Summarize computes every aggregate with the default rules.
func Summarize(records []Record, referenceDate time.Time) Summary {
	return DefaultRules().Summarize(records, referenceDate)
}

// CountImpactedClients counts records with a regulation other than N/A and a deadline.
// Only N/A is excluded here; the other sentinels still count as impacted.
// A missing label is never impacted.
func (r Rules) CountImpactedClients(records []Record) int {
	n := 0
	for i := range records {
		label := records[i].NewRegulation
		if label != "" && label != NotApplicable && records[i].Deadline != nil {
			n++
		}
	}
	return n
}

// CountActiveNewRegulations counts distinct regulation labels that are not sentinels.
func (r Rules) CountActiveNewRegulations(records []Record) int {
	sentinels := set.From(r.Sentinels)
	active := set.New[string](len(records))
	for i := range records {
		label := records[i].NewRegulation
		if label == "" || sentinels.Contains(label) {
			continue
		}
		active.Insert(label)
	}
	return active.Size()
}

// ClassifyUrgency scans records in order. The first deadline within HighWithinDays
// returns UrgencyHigh immediately; a deadline within MediumWithinDays raises the
// result to UrgencyMedium and scanning continues.
func (r Rules) ClassifyUrgency(records []Record, referenceDate time.Time) Urgency {
	level := UrgencyLow
	for i := range records {
		deadline := records[i].Deadline
		if deadline == nil {
			continue
		}
		days := DaysUntil(*deadline, referenceDate)
		if days <= r.HighWithinDays {
			return UrgencyHigh
		}
		if days <= r.MediumWithinDays {
			level = UrgencyMedium
		}
	}
	return level
}

// Summarize computes every aggregate over records as of referenceDate.
func (r Rules) Summarize(records []Record, referenceDate time.Time) Summary {
	total := len(records)
	impacted := r.CountImpactedClients(records)
	active := r.CountActiveNewRegulations(records)
	return Summary{
		Total:                 total,
		Impacted:              impacted,
		ActiveRegulations:     active,
		Urgency:               r.ClassifyUrgency(records, referenceDate),
		ImpactedFraction:      Fraction(impacted, total),
		NewRegulationFraction: Fraction(active, total),
	}
}

// DaysUntil returns the fractional number of days from reference to deadline.
// Past deadlines are negative.
func DaysUntil(deadline, reference time.Time) float64 {
	return float64(deadline.Sub(reference)) / float64(day)
}

// Fraction returns part/total, or 0 when total is not positive.
func Fraction(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}
