package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed by the API process. Registered once on the default
// registry; /metrics serves them through promhttp.
var (
	OrderItemMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traiteur",
		Subsystem: "orders",
		Name:      "item_mutations_total",
		Help:      "Order item mutations applied, by operation.",
	}, []string{"op"})

	OrderTxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "traiteur",
		Subsystem: "orders",
		Name:      "tx_retries_total",
		Help:      "Aggregation transactions retried after a store conflict.",
	})

	ProductRowsImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "traiteur",
		Subsystem: "catalog",
		Name:      "import_rows_total",
		Help:      "Product rows inserted by CSV import.",
	})
)
