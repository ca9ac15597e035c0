package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"juris-backend/internal/clients"
	"juris-backend/internal/compliance"
	"juris-backend/internal/shared/config"
)

type options struct {
	csvPath string
	asOf    string
	asJSON  bool
	now     func() time.Time
}

type report struct {
	ReferenceDate        string             `json:"referenceDate"`
	TotalClients         int                `json:"totalClients"`
	ImpactedClients      int                `json:"impactedClients"`
	ActiveRegulations    int                `json:"activeRegulations"`
	Urgency              compliance.Urgency `json:"urgency"`
	ImpactedPercent      float64            `json:"impactedPercent"`
	NewRegulationPercent float64            `json:"newRegulationPercent"`
}

func run(out io.Writer, opts options) error {
	ref, err := referenceDate(opts)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.csvPath)
	if err != nil {
		return errors.Wrapf(err, "open %s", opts.csvPath)
	}
	defer f.Close()

	list, err := clients.ReadCSV(f)
	if err != nil {
		return err
	}
	sum := compliance.Summarize(clients.Records(list), ref)
	rep := report{
		ReferenceDate:        ref.Format(config.DateLayout),
		TotalClients:         sum.Total,
		ImpactedClients:      sum.Impacted,
		ActiveRegulations:    sum.ActiveRegulations,
		Urgency:              sum.Urgency,
		ImpactedPercent:      percent(sum.ImpactedFraction),
		NewRegulationPercent: percent(sum.NewRegulationFraction),
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	_, err = fmt.Fprintf(out,
		"As of %s\nClients:            %d\nImpacted:           %d (%.2f%%)\nActive regulations: %d (%.2f%%)\nUrgency:            %s\n",
		rep.ReferenceDate, rep.TotalClients, rep.ImpactedClients, rep.ImpactedPercent,
		rep.ActiveRegulations, rep.NewRegulationPercent, rep.Urgency)
	return err
}

func referenceDate(opts options) (time.Time, error) {
	if raw := strings.TrimSpace(opts.asOf); raw != "" {
		t, err := time.ParseInLocation(config.DateLayout, raw, time.UTC)
		if err != nil {
			return time.Time{}, errors.Newf("--as-of must be YYYY-MM-DD, got %q", raw)
		}
		return t, nil
	}
	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	return now().UTC().Truncate(24 * time.Hour), nil
}

func percent(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Shift(2).Round(2).InexactFloat64()
}
