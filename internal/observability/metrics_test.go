package observability

import (
	"errors"
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordBenchRun("hackbench", "local", 1200*time.Millisecond, nil)
	RecordBenchRun("pipelat", "node-a", 300*time.Millisecond, errors.New("exit status 1"))
}
