package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics counts credit-consuming operations by outcome code.
type OperationMetrics struct {
	operations *prometheus.CounterVec
}

func NewOperationMetrics() *OperationMetrics {
	return &OperationMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wardrobe",
			Name:      "operations_total",
			Help:      "AI proxy operations by outcome code.",
		}, []string{"operation", "code"}),
	}
}

// Register attaches the collectors to the process registry. Kept out of the
// constructor so tests can build metrics without touching global state.
func (m *OperationMetrics) Register(registerer prometheus.Registerer) error {
	return registerer.Register(m.operations)
}

func (m *OperationMetrics) Observe(operation string, err error) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		_, payload := mapError(err)
		code = payload.Code
	}
	m.operations.WithLabelValues(operation, code).Inc()
}
