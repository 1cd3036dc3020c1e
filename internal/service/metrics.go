package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total number of orders created.",
	})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "payments",
		Name:      "attempts_total",
		Help:      "Payment attempts by rail and outcome.",
	}, []string{"rail", "outcome"})

	mintsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "mints",
		Name:      "issued_total",
		Help:      "Mint issuance attempts by outcome.",
	}, []string{"outcome"})
)
