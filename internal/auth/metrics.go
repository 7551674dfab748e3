package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var exchangeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "signet_auth_exchanges_total",
	Help: "Authorization-code exchanges by outcome.",
}, []string{"outcome"})
