package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signet_logins_total",
		Help: "Login redirects by outcome.",
	}, []string{"outcome"})

	signOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signet_sign_requests_total",
		Help: "Sign requests by outcome.",
	}, []string{"outcome"})
)
