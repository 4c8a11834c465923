package metrics

import (
	"github.com/ivanpodgorny/bolexport/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

const namespace = "bolexport"

// Write сохраняет итоги выгрузки в файл path в текстовом формате Prometheus
// для textfile collector node_exporter. Файл заменяется атомарно.
func Write(path string, summary entity.RunSummary, success bool, finishedAt time.Time) error {
	registry := prometheus.NewRegistry()

	successValue := 0.0
	if success {
		successValue = 1
	}

	values := []struct {
		name  string
		help  string
		value float64
	}{
		{"orders_seen", "Orders returned by the retailer API during the last run.", float64(summary.OrdersSeen)},
		{"orders_failed", "Orders skipped because of fetch or mapping errors during the last run.", float64(summary.OrdersFailed)},
		{"items_new", "Order items exported during the last run.", float64(summary.ItemsNew)},
		{"items_skipped", "Order items skipped as already processed during the last run.", float64(summary.ItemsSkipped)},
		{"items_invalid", "Order items skipped because of mapping errors during the last run.", float64(summary.ItemsInvalid)},
		{"last_run_success", "Whether the last run finished without a fatal error.", successValue},
		{"last_run_timestamp_seconds", "Unix time the last run finished.", float64(finishedAt.Unix())},
	}

	for _, v := range values {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      v.name,
			Help:      v.help,
		})
		g.Set(v.value)

		if err := registry.Register(g); err != nil {
			return err
		}
	}

	return prometheus.WriteToTextfile(path, registry)
}
