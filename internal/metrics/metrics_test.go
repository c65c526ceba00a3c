package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ObserveUpload("success", 3)
	c.ObserveUpload("failure", 1)
	c.AddUploadBytes(2048)
	c.IncRetryWait()
	c.IncRetryWait()
	c.ObserveResolution(true)
	c.ObserveResolution(false)
	c.ObserveResolution(false)

	if got := testutil.ToFloat64(c.uploadsTotal.WithLabelValues("success")); got != 3 {
		t.Errorf("Expected 3 successful uploads, got %v", got)
	}
	if got := testutil.ToFloat64(c.uploadsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("Expected 1 failed upload, got %v", got)
	}
	if got := testutil.ToFloat64(c.uploadBytesTotal); got != 2048 {
		t.Errorf("Expected 2048 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(c.retryWaitsTotal); got != 2 {
		t.Errorf("Expected 2 retry waits, got %v", got)
	}
	if got := testutil.ToFloat64(c.resolutionsTotal.WithLabelValues("unresolved")); got != 2 {
		t.Errorf("Expected 2 unresolved, got %v", got)
	}
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.ObserveUpload("success", 5)

	if got := testutil.ToFloat64(b.uploadsTotal.WithLabelValues("success")); got != 0 {
		t.Errorf("Expected isolated registries, got %v", got)
	}
}

func TestCollector_HandlerServesRegistry(t *testing.T) {
	c := NewCollector()
	c.ObserveRequest("/api/v1/gallery", 200, 42*time.Millisecond)

	if c.Handler() == nil {
		t.Fatal("Expected a metrics handler")
	}
	if got := testutil.CollectAndCount(c.requestDuration); got == 0 {
		t.Error("Expected request duration samples to be collectable")
	}
}
