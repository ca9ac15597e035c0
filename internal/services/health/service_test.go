package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService().Status(context.Background())
	if !report.OK {
		t.Fatalf("expected ok")
	}
	if report.Checks != nil {
		t.Fatalf("expected no checks, got %v", report.Checks)
	}
}

func TestStatusReportsFailingDependency(t *testing.T) {
	svc := NewService()
	svc.Register("database", func(context.Context) error { return nil })
	svc.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatalf("expected not ok")
	}
	if report.Checks["database"] != "ok" {
		t.Fatalf("unexpected database status: %q", report.Checks["database"])
	}
	if report.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected redis status: %q", report.Checks["redis"])
	}
}
