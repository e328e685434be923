package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(zerolog.Nop(), "")

	c.ObserveRequest("GET /api/orders", http.MethodGet, 200, 15*time.Millisecond)
	c.ObserveRequest("GET /api/orders", http.MethodGet, 200, 5*time.Millisecond)
	c.RecordEvent("order.created")
	c.RecordJob("check_low_stock", time.Millisecond, nil)
	c.RecordJob("check_low_stock", time.Millisecond, errors.New("boom"))
	c.AddPaperSheets(300)
	c.AddPaperSheets(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET /api/orders", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("order.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobRuns.WithLabelValues("check_low_stock", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobRuns.WithLabelValues("check_low_stock", "success")))
	assert.Equal(t, 300.0, testutil.ToFloat64(c.paperSheets))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(zerolog.Nop(), "printcenter")
	c.RecordEvent("inventory.deducted")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `printcenter_domain_events_total{type="inventory.deducted"} 1`)
}
