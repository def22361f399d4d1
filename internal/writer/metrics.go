package writer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pendingWrites tracks snapshots waiting in the queue.
	pendingWrites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osgraph_writer_pending",
		Help: "Number of coalesced snapshots waiting to be written",
	})

	// writesTotal counts completed background writes by collection.
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osgraph_writer_writes_total",
		Help: "Total background writes by collection",
	}, []string{"collection"})

	// writeErrors counts failed background writes by collection.
	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osgraph_writer_errors_total",
		Help: "Total failed background writes by collection",
	}, []string{"collection"})
)
