package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var heartbeatTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netravaani_device_transitions_total",
	Help: "Device status transitions by resulting state.",
}, []string{"state"})
