package clients

import (
	"context"
	"testing"
	"time"
)

func seedMemory(t *testing.T) *MemoryRepo {
	t.Helper()
	repo := NewMemoryRepo()
	d1 := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []Client{
		{ClientID: "C-003", CompanyName: "beta", Country: "Spain", Deadline: &d2, Status: "LIVE"},
		{ClientID: "C-001", CompanyName: "Gamma", Country: "France", Status: "MONITORED"},
		{ClientID: "C-002", CompanyName: "Alpha", Country: "Germany", Deadline: &d1, Status: "AMENDED"},
	}
	for i := range rows {
		if err := repo.Create(context.Background(), &rows[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	return repo
}

func ids(list []Client) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ClientID
	}
	return out
}

func TestMemoryRepoListSorting(t *testing.T) {
	repo := seedMemory(t)
	tests := []struct {
		params ListParams
		want   []string
	}{
		{ListParams{}, []string{"C-001", "C-002", "C-003"}},
		{ListParams{Sort: SortClientID, Order: "desc"}, []string{"C-003", "C-002", "C-001"}},
		{ListParams{Sort: SortCompanyName}, []string{"C-002", "C-003", "C-001"}},
		{ListParams{Sort: SortDeadline}, []string{"C-002", "C-003", "C-001"}},
		{ListParams{Sort: SortDeadline, Order: "desc"}, []string{"C-003", "C-002", "C-001"}},
		{ListParams{Sort: SortStatus}, []string{"C-002", "C-003", "C-001"}},
	}
	for _, tt := range tests {
		got, total, err := repo.List(context.Background(), tt.params)
		if err != nil {
			t.Fatalf("List(%+v): %v", tt.params, err)
		}
		if total != 3 {
			t.Fatalf("expected total 3, got %d", total)
		}
		gotIDs := ids(got)
		for i := range tt.want {
			if gotIDs[i] != tt.want[i] {
				t.Fatalf("List(%+v) = %v, want %v", tt.params, gotIDs, tt.want)
			}
		}
	}
}

func TestMemoryRepoListPaging(t *testing.T) {
	repo := seedMemory(t)

	page, total, err := repo.List(context.Background(), ListParams{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 2 || page[0].ClientID != "C-002" {
		t.Fatalf("unexpected page total=%d ids=%v", total, ids(page))
	}

	empty, _, err := repo.List(context.Background(), ListParams{Offset: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %v", ids(empty))
	}
}

func TestMemoryRepoHonorsCancelledContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.Count(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
