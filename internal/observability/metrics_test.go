package observability

import (
	"testing"
	"time"

	"github.com/danmuck/sumctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("sumserver-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordExchange("sumserver-a", "ok", 9, 80*time.Microsecond)
	RecordExchange("sumserver-a", "malformed", -1, 20*time.Microsecond)

	if got := testutil.ToFloat64(exchangeRequests.WithLabelValues("sumserver-a", "ok")); got < 1 {
		t.Fatalf("expected ok exchange counted, got %v", got)
	}
	if got := testutil.ToFloat64(exchangeRequests.WithLabelValues("sumserver-a", "malformed")); got < 1 {
		t.Fatalf("expected malformed exchange counted, got %v", got)
	}
	testlog.Logf("observability/metrics: registration idempotent and recording paths executed")
}
