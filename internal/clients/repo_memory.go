package clients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[string]Client // clientId -> client
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Client)}
}

// List returns a sorted page of clients and the total count.
func (r *MemoryRepo) List(ctx context.Context, params ListParams) ([]Client, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	all := make([]Client, 0, len(r.data))
	for _, c := range r.data {
		all = append(all, c)
	}
	r.mu.RUnlock()

	less := lessFor(params.Sort)
	desc := params.Descending()
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		// nil deadlines always sort last.
		if params.Sort == SortDeadline && (a.Deadline == nil) != (b.Deadline == nil) {
			return b.Deadline == nil
		}
		if less(a, b) {
			return !desc
		}
		if less(b, a) {
			return desc
		}
		return a.ClientID < b.ClientID
	})

	total := len(all)
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Client{}, total, nil
	}
	end := total
	if params.Limit > 0 && offset+params.Limit < end {
		end = offset + params.Limit
	}
	return all[offset:end], total, nil
}

// GetByClientID returns the client with the given business id.
func (r *MemoryRepo) GetByClientID(ctx context.Context, clientID string) (Client, error) {
	if err := ctx.Err(); err != nil {
		return Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[clientID]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

// Create inserts a client, assigning its surrogate id and timestamps.
func (r *MemoryRepo) Create(ctx context.Context, c *Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[c.ClientID]; exists {
		return ErrDuplicateClientID
	}
	r.nextID++
	now := time.Now().UTC()
	c.ID = r.nextID
	c.CreatedAt = now
	c.UpdatedAt = now
	r.data[c.ClientID] = *c
	return nil
}

// Update replaces the stored client with the same ClientID.
func (r *MemoryRepo) Update(ctx context.Context, c Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[c.ClientID]
	if !ok {
		return ErrNotFound
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.data[c.ClientID] = c
	return nil
}

// Delete removes a client.
func (r *MemoryRepo) Delete(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[clientID]; !ok {
		return ErrNotFound
	}
	delete(r.data, clientID)
	return nil
}

// Count returns the number of stored clients.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data), nil
}

func lessFor(key string) func(a, b Client) bool {
	switch key {
	case SortCompanyName:
		return func(a, b Client) bool { return strings.ToLower(a.CompanyName) < strings.ToLower(b.CompanyName) }
	case SortCountry:
		return func(a, b Client) bool { return strings.ToLower(a.Country) < strings.ToLower(b.Country) }
	case SortNewRegulation:
		return func(a, b Client) bool { return a.NewRegulation < b.NewRegulation }
	case SortStatus:
		return func(a, b Client) bool { return a.Status < b.Status }
	case SortDeadline:
		return func(a, b Client) bool {
			if a.Deadline == nil || b.Deadline == nil {
				return false
			}
			return a.Deadline.Before(*b.Deadline)
		}
	default:
		return func(a, b Client) bool { return a.ClientID < b.ClientID }
	}
}

var _ Repo = (*MemoryRepo)(nil)
