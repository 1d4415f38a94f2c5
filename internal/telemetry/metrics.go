package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the messaging engine. The action label carries the final
// outcome of a record (consume, reject, unrouted, discarded); redeliveries
// are counted separately because they repeat per record.
var (
	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stencil_consumer_messages_total",
		Help: "Records resolved by the consumer loop, by final action.",
	}, []string{"topic", "action"})

	Redeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stencil_consumer_redeliveries_total",
		Help: "Times a record was redelivered without advancing the offset.",
	}, []string{"topic"})

	MessagesProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stencil_producer_messages_total",
		Help: "Messages acknowledged by the broker.",
	}, []string{"topic"})

	ProducerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stencil_producer_errors_total",
		Help: "Producer sends that failed.",
	}, []string{"topic"})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
