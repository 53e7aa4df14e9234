package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLotMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLotMetrics(reg)
	metrics.IncTransition("rate_assigned")
	metrics.IncTransition("rate_assigned")
	metrics.IncPayment("farmer")
	metrics.IncRejection("finalize_weight")
	metrics.IncTransition("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "lot_transitions_total", "to_status", "rate_assigned"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transitions=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "lot_payments_total", "party", "farmer"); err != nil {
		t.Fatalf("fetch payments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payments=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "lot_transition_rejections_total", "operation", "finalize_weight"); err != nil {
		t.Fatalf("fetch rejections: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejections=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "lot_transitions_total", "to_status", "unknown"); err != nil {
		t.Fatalf("fetch normalized label: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty status mapped to unknown, got %f", got)
	}
}

func TestLotMetricsNilReceiverSafe(t *testing.T) {
	var metrics *LotMetrics
	metrics.IncTransition("sold")
	metrics.IncPayment("trader")
	metrics.IncRejection("assign_rate")

	unregistered := NewLotMetrics(nil)
	unregistered.IncTransition("sold")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
