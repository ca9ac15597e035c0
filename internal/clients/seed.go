package clients

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"juris-backend/internal/compliance"
	"juris-backend/internal/shared/telemetry"
)

var seedColumns = []string{"client_id", "company_name", "country", "new_regulation", "deadline", "status"}

// Seed inserts the CSV rows when no clients exist yet and returns the number inserted.
// Rows with an unparseable deadline are stored without one.
func (s *Service) Seed(ctx context.Context, r io.Reader) (int, error) {
	count, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	rows, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, c := range rows {
		c.CountryCode = s.Countries.Alpha2(c.Country)
		if err := s.Repo.Create(ctx, &c); err != nil {
			if errors.Is(err, ErrDuplicateClientID) {
				telemetry.Warn("clients.seed.duplicate", map[string]any{"client_id": c.ClientID})
				continue
			}
			return inserted, err
		}
		inserted++
	}
	telemetry.Info("clients.seed.complete", map[string]any{"inserted": inserted, "rows": len(rows)})
	return inserted, nil
}

// SeedFile seeds from a CSV file on disk. A missing file is logged and skipped.
func (s *Service) SeedFile(ctx context.Context, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			telemetry.Warn("clients.seed.missing", map[string]any{"path": path})
			return 0, nil
		}
		return 0, errors.Wrapf(err, "open seed csv %s", path)
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// ReadCSV parses client rows from a CSV with a header line. Column order is free;
// client_id is required.
func ReadCSV(r io.Reader) ([]Client, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read csv header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := index["client_id"]; !ok {
		return nil, errors.Wrap(ErrInvalidInput, "csv header missing client_id")
	}

	var out []Client
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		values := make(map[string]string, len(seedColumns))
		for _, col := range seedColumns {
			if i, ok := index[col]; ok && i < len(record) {
				values[col] = strings.TrimSpace(record[i])
			}
		}
		if values["client_id"] == "" {
			continue
		}

		c := Client{
			ClientID:      values["client_id"],
			CompanyName:   values["company_name"],
			Country:       values["country"],
			NewRegulation: values["new_regulation"],
			Status:        compliance.Status(strings.ToUpper(values["status"])),
		}
		if !c.Status.Valid() {
			if c.Status != "" {
				telemetry.Warn("clients.seed.invalid_status", map[string]any{
					"client_id": c.ClientID,
					"status":    values["status"],
				})
			}
			c.Status = compliance.StatusUnderReview
		}
		deadline, err := ParseDeadline(values["deadline"])
		if err != nil {
			telemetry.Warn("clients.seed.invalid_deadline", map[string]any{
				"client_id": c.ClientID,
				"deadline":  values["deadline"],
			})
		}
		c.Deadline = deadline
		out = append(out, c)
	}
	return out, nil
}
