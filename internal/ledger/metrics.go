package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustcore_ledger_operations_total",
		Help: "Total routed ledger operations by backend, operation, and source tag.",
	}, []string{"backend", "operation", "source"})

	ledgerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustcore_ledger_failures_total",
		Help: "Total ledger operations that failed past the fallback policy.",
	}, []string{"backend", "operation"})
)

func recordOp(backend Backend, operation string, source Source) {
	ledgerOpsTotal.WithLabelValues(string(backend), operation, string(source)).Inc()
}

func recordFailure(backend Backend, operation string) {
	ledgerFailuresTotal.WithLabelValues(string(backend), operation).Inc()
}
