package engine

import (
	"github.com/armon/go-metrics"
)

// observeSubmit records an applied transaction
func observeSubmit(res *SubmitResult) {
	labels := []metrics.Label{{Name: "status", Value: res.Status.String()}}

	metrics.IncrCounterWithLabels([]string{"engine", "transactions"}, 1, labels)
	metrics.SetGauge([]string{"engine", "gas_used"}, float32(res.GasUsed))
	metrics.SetGauge([]string{"engine", "near_gas_burnt"}, float32(res.NearGasBurnt))

	if len(res.Receipts) > 0 {
		metrics.IncrCounter([]string{"engine", "receipts"}, float32(len(res.Receipts)))
	}
}
