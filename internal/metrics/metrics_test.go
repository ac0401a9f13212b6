package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBackend(t *testing.T) {
	before := testutil.ToFloat64(BackendRequests.WithLabelValues("test_action", "error"))

	ObserveBackend("test_action", time.Now(), errors.New("boom"))
	ObserveBackend("test_action", time.Now(), nil)

	if got := testutil.ToFloat64(BackendRequests.WithLabelValues("test_action", "error")); got != before+1 {
		t.Errorf("error count = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(BackendRequests.WithLabelValues("test_action", "success")); got < 1 {
		t.Errorf("success count = %v, want >= 1", got)
	}
}

func TestSetConnectionStatus(t *testing.T) {
	SetConnectionStatus("offline")

	if got := testutil.ToFloat64(ConnectionStatus.WithLabelValues("offline")); got != 1 {
		t.Errorf("offline = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ConnectionStatus.WithLabelValues("connected")); got != 0 {
		t.Errorf("connected = %v, want 0", got)
	}

	SetConnectionStatus("connected")
	if got := testutil.ToFloat64(ConnectionStatus.WithLabelValues("offline")); got != 0 {
		t.Errorf("offline after switch = %v, want 0", got)
	}
}
