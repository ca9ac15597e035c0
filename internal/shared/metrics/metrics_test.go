package metrics

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nil, driver.ErrBadConn }

func init() {
	sql.Register("metricstest", nopDriver{})
}

func TestIncSummaryByUrgency(t *testing.T) {
	before := testutil.ToFloat64(summariesTotal.WithLabelValues("HIGH"))
	IncSummary("HIGH")
	IncSummary("HIGH")
	if got := testutil.ToFloat64(summariesTotal.WithLabelValues("HIGH")) - before; got != 2 {
		t.Fatalf("expected 2 new HIGH summaries, got %v", got)
	}
}

func TestObserveInferenceOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(inferenceRequestsTotal.WithLabelValues("gemma3", "ok"))
	errBefore := testutil.ToFloat64(inferenceRequestsTotal.WithLabelValues("gemma3", "error"))

	ObserveInference("gemma3", 20*time.Millisecond, nil)
	ObserveInference("gemma3", 20*time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(inferenceRequestsTotal.WithLabelValues("gemma3", "ok")) - okBefore; got != 1 {
		t.Fatalf("expected one ok call, got %v", got)
	}
	if got := testutil.ToFloat64(inferenceRequestsTotal.WithLabelValues("gemma3", "error")) - errBefore; got != 1 {
		t.Fatalf("expected one failed call, got %v", got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	AddPages(3, 1)

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, name := range []string{"juris_pages_extracted_total", "juris_pages_skipped_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestRegisterDBStatsIsIdempotent(t *testing.T) {
	db, err := sql.Open("metricstest", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := RegisterDBStats(db, "client_profiles_test"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := RegisterDBStats(db, "client_profiles_test"); err != nil {
		t.Fatalf("second register should be ignored, got %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `go_sql_max_open_connections{db_name="client_profiles_test"}`) {
		t.Fatalf("expected db pool gauge in metrics output")
	}
}
