package clients

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"juris-backend/internal/compliance"
	"juris-backend/internal/shared/config"
)

// Service contains business logic for client profiles.
type Service struct {
	Repo      Repo
	Countries *CountryResolver
	validate  *validator.Validate
}

// NewService constructs a Service over repo.
func NewService(repo Repo) *Service {
	v := validator.New()
	_ = v.RegisterValidation("client_status", func(fl validator.FieldLevel) bool {
		return compliance.Status(fl.Field().String()).Valid()
	})
	return &Service{
		Repo:      repo,
		Countries: NewCountryResolver(),
		validate:  v,
	}
}

// List returns a page of clients and the total number of clients.
func (s *Service) List(ctx context.Context, params ListParams) ([]Client, int, error) {
	params, err := normalizeListParams(params)
	if err != nil {
		return nil, 0, err
	}
	return s.Repo.List(ctx, params)
}

// All returns every client in default order.
func (s *Service) All(ctx context.Context) ([]Client, error) {
	list, _, err := s.Repo.List(ctx, ListParams{Sort: SortClientID, Order: "asc"})
	return list, err
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Client, error) {
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Country = strings.TrimSpace(req.Country)
	req.NewRegulation = strings.TrimSpace(req.NewRegulation)
	req.Status = strings.TrimSpace(req.Status)

	if err := s.validate.Struct(req); err != nil {
		return Client{}, validationError(err)
	}

	deadline, err := ParseDeadline(req.Deadline)
	if err != nil {
		return Client{}, err
	}

	status := compliance.StatusUnderReview
	if req.Status != "" {
		status = compliance.Status(req.Status)
	}

	c := Client{
		ClientID:      req.ClientID,
		CompanyName:   req.CompanyName,
		Country:       req.Country,
		CountryCode:   s.Countries.Alpha2(req.Country),
		NewRegulation: req.NewRegulation,
		Deadline:      deadline,
		Status:        status,
	}
	if err := s.Repo.Create(ctx, &c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// Update applies a partial update. The deadline is cleared unless req carries a non-empty value.
func (s *Service) Update(ctx context.Context, clientID string, req UpdateRequest) (Client, error) {
	c, err := s.Repo.GetByClientID(ctx, strings.TrimSpace(clientID))
	if err != nil {
		return Client{}, err
	}

	if req.CompanyName.Valid {
		c.CompanyName = strings.TrimSpace(req.CompanyName.String)
	}
	if req.Country.Valid {
		c.Country = strings.TrimSpace(req.Country.String)
		c.CountryCode = s.Countries.Alpha2(c.Country)
	}
	if req.NewRegulation.Valid {
		c.NewRegulation = strings.TrimSpace(req.NewRegulation.String)
	}
	if req.Status.Valid {
		status := compliance.Status(strings.TrimSpace(req.Status.String))
		if !status.Valid() {
			return Client{}, errors.Wrapf(ErrInvalidInput, "unknown status %q", req.Status.String)
		}
		c.Status = status
	}

	c.Deadline = nil
	if req.Deadline.Valid {
		deadline, err := ParseDeadline(req.Deadline.String)
		if err != nil {
			return Client{}, err
		}
		c.Deadline = deadline
	}

	if err := s.Repo.Update(ctx, c); err != nil {
		return Client{}, err
	}
	return s.Repo.GetByClientID(ctx, c.ClientID)
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, clientID string) error {
	return s.Repo.Delete(ctx, strings.TrimSpace(clientID))
}

// ParseDeadline parses a YYYY-MM-DD deadline. Blank input yields nil.
func ParseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(config.DateLayout, raw, time.UTC)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "deadline %q", raw), ErrInvalidDeadline)
	}
	return &t, nil
}

func normalizeListParams(p ListParams) (ListParams, error) {
	p.Sort = strings.TrimSpace(p.Sort)
	if p.Sort == "" {
		p.Sort = SortClientID
	}
	if _, ok := sortColumns[p.Sort]; !ok {
		return p, errors.Wrapf(ErrInvalidInput, "unsupported sort key %q", p.Sort)
	}
	p.Order = strings.ToLower(strings.TrimSpace(p.Order))
	switch p.Order {
	case "":
		p.Order = "asc"
	case "asc", "desc":
	default:
		return p, errors.Wrapf(ErrInvalidInput, "order must be asc or desc")
	}
	if p.Limit < 0 || p.Offset < 0 {
		return p, errors.Wrap(ErrInvalidInput, "limit and offset must be non-negative")
	}
	return p, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldName(fe.Field())+" ("+fe.Tag()+")")
	}
	return errors.Wrapf(ErrInvalidInput, "invalid fields: %s", strings.Join(fields, ", "))
}

var jsonFieldNames = map[string]string{
	"ClientID":      "client_id",
	"CompanyName":   "company_name",
	"Country":       "country",
	"NewRegulation": "new_regulation",
	"Status":        "status",
}

func fieldName(goName string) string {
	if name, ok := jsonFieldNames[goName]; ok {
		return name
	}
	return goName
}
