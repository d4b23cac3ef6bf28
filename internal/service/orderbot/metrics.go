package orderbot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_turns_total",
			Help: "Chat turns handled, by reply source and kind",
		},
		[]string{"source", "kind"},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_orders_total",
			Help: "Order placement attempts, by outcome",
		},
		[]string{"outcome"},
	)
)
