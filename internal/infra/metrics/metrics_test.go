//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterToFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterTo(reg); err != nil {
		t.Fatalf("RegisterTo: %v", err)
	}
	if err := RegisterTo(reg); err == nil {
		t.Fatal("second registration on the same registry should fail")
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(mutationsTotal.WithLabelValues("create_keyword", "ok"))
	IncMutation(" Create_Keyword ", "OK")
	after := testutil.ToFloat64(mutationsTotal.WithLabelValues("create_keyword", "ok"))
	if after-before != 1 {
		t.Errorf("mutation counter delta = %v, want 1", after-before)
	}

	b := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("jobs", "hit"))
	IncCacheRequest("jobs", "hit")
	if testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("jobs", "hit"))-b != 1 {
		t.Error("cache hit counter not incremented")
	}
}
