package clients

import (
	"time"

	"github.com/guregu/null/v5"

	"juris-backend/internal/shared/config"
)

// CreateRequest is the POST body. Keys follow the snake_case create schema.
type CreateRequest struct {
	ClientID      string `json:"client_id" validate:"required,max=64"`
	CompanyName   string `json:"company_name" validate:"required,max=256"`
	Country       string `json:"country" validate:"required,max=128"`
	NewRegulation string `json:"new_regulation" validate:"required,max=256"`
	Deadline      string `json:"deadline"`
	Status        string `json:"status" validate:"omitempty,client_status"`
}

// UpdateRequest is the PUT body. Null or absent fields are left unchanged,
// except deadline, which is cleared unless a non-empty value is supplied.
type UpdateRequest struct {
	CompanyName   null.String `json:"company_name"`
	Country       null.String `json:"country"`
	NewRegulation null.String `json:"new_regulation"`
	Deadline      null.String `json:"deadline"`
	Status        null.String `json:"status"`
}

// ClientResponse is the outward-facing representation of a client.
type ClientResponse struct {
	ClientID      string      `json:"clientId"`
	CompanyName   string      `json:"companyName"`
	Country       string      `json:"country"`
	CountryCode   string      `json:"countryCode,omitempty"`
	NewRegulation string      `json:"newRegulation"`
	Deadline      null.String `json:"deadline"`
	Status        string      `json:"status"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func toResponse(c Client) ClientResponse {
	resp := ClientResponse{
		ClientID:      c.ClientID,
		CompanyName:   c.CompanyName,
		Country:       c.Country,
		CountryCode:   c.CountryCode,
		NewRegulation: c.NewRegulation,
		Status:        string(c.Status),
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Deadline != nil {
		resp.Deadline = null.StringFrom(c.Deadline.Format(config.DateLayout))
	}
	return resp
}

func toResponses(list []Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toResponse(c))
	}
	return out
}
