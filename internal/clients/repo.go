package clients

import "context"

// Repo defines persistence operations for client profiles.
type Repo interface {
	List(ctx context.Context, params ListParams) ([]Client, int, error)
	GetByClientID(ctx context.Context, clientID string) (Client, error)
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, clientID string) error
	Count(ctx context.Context) (int, error)
}
