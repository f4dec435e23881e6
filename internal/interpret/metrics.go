package interpret

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gesturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netravaani_gestures_total",
		Help: "Blink gestures dispatched, by active interpreter and gesture.",
	}, []string{"mode", "gesture"})

	emergencyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netravaani_emergency_total",
		Help: "Emergency gestures by outcome.",
	}, []string{"result"})

	activeMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netravaani_interpreter_active",
		Help: "Active interpreter encoded as 0 idle, 1 menu, 2 phrase, 3 morse, 4 game.",
	})
)

func modeValue(mode string) float64 {
	switch mode {
	case "menu":
		return 1
	case "phrase":
		return 2
	case "morse":
		return 3
	case "game":
		return 4
	default:
		return 0
	}
}
