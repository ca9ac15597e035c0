package clients

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"juris-backend/internal/compliance"
)

const (
	clientsTable     = "client_profiles"
	uniqueViolation  = "23505"
	defaultOrderTail = "client_id ASC"
)

var (
	psql          = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	clientColumns = []string{
		"id", "client_id", "company_name", "country", "country_code",
		"new_regulation", "deadline", "status", "created_at", "updated_at",
	}
	sortColumns = map[string]string{
		SortClientID:      "client_id",
		SortCompanyName:   "lower(company_name)",
		SortCountry:       "lower(country)",
		SortNewRegulation: "new_regulation",
		SortDeadline:      "deadline",
		SortStatus:        "status",
	}
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// List returns a sorted page of clients and the total count.
func (r *PGRepo) List(ctx context.Context, params ListParams) ([]Client, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := psql.Select(clientColumns...).From(clientsTable).OrderBy(orderClause(params))
	if params.Limit > 0 {
		query = query.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		query = query.Offset(uint64(params.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build list query")
	}
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list clients")
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate clients")
	}
	return out, total, nil
}

// GetByClientID returns the client with the given business id.
func (r *PGRepo) GetByClientID(ctx context.Context, clientID string) (Client, error) {
	stmt, args, err := psql.Select(clientColumns...).
		From(clientsTable).
		Where(sq.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return Client{}, errors.Wrap(err, "build get query")
	}
	c, err := scanClient(r.DB.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

// Create inserts a client and fills its generated columns.
func (r *PGRepo) Create(ctx context.Context, c *Client) error {
	stmt, args, err := psql.Insert(clientsTable).
		Columns("client_id", "company_name", "country", "country_code", "new_regulation", "deadline", "status").
		Values(c.ClientID, c.CompanyName, c.Country, c.CountryCode, c.NewRegulation, nullDate(c.Deadline), string(c.Status)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build insert")
	}
	err = r.DB.QueryRowContext(ctx, stmt, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateClientID
		}
		return errors.Wrap(err, "insert client")
	}
	return nil
}

// Update overwrites the mutable columns of an existing client.
func (r *PGRepo) Update(ctx context.Context, c Client) error {
	stmt, args, err := psql.Update(clientsTable).
		Set("company_name", c.CompanyName).
		Set("country", c.Country).
		Set("country_code", c.CountryCode).
		Set("new_regulation", c.NewRegulation).
		Set("deadline", nullDate(c.Deadline)).
		Set("status", string(c.Status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"client_id": c.ClientID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build update")
	}
	res, err := r.DB.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "update client")
	}
	return requireAffected(res)
}

// Delete removes a client.
func (r *PGRepo) Delete(ctx context.Context, clientID string) error {
	stmt, args, err := psql.Delete(clientsTable).Where(sq.Eq{"client_id": clientID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete")
	}
	res, err := r.DB.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "delete client")
	}
	return requireAffected(res)
}

// Count returns the number of stored clients.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	stmt, args, err := psql.Select("COUNT(*)").From(clientsTable).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "build count")
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count clients")
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (Client, error) {
	var c Client
	var status string
	var deadline sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.CompanyName,
		&c.Country,
		&c.CountryCode,
		&c.NewRegulation,
		&deadline,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Client{}, err
	}
	c.Status = compliance.Status(status)
	if deadline.Valid {
		d := deadline.Time.UTC()
		c.Deadline = &d
	}
	return c, nil
}

func orderClause(params ListParams) string {
	col, ok := sortColumns[params.Sort]
	if !ok {
		col = sortColumns[SortClientID]
	}
	dir := "ASC"
	if params.Descending() {
		dir = "DESC"
	}
	if col == "client_id" {
		return col + " " + dir
	}
	return col + " " + dir + " NULLS LAST, " + defaultOrderTail
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Repo = (*PGRepo)(nil)
