package handlers

import "github.com/prometheus/client_golang/prometheus"

var (
	uploadsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appmovin_uploads_total",
		Help: "Total app uploads by backend and outcome",
	}, []string{"backend", "outcome"})
	downloadsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appmovin_download_links_total",
		Help: "Total download references resolved by backend and outcome",
	}, []string{"backend", "outcome"})
	deletesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appmovin_deletes_total",
		Help: "Total app deletions by backend and outcome",
	}, []string{"backend", "outcome"})
	authorizationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appmovin_authorizations_total",
		Help: "Total remote authorization attempts by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(uploadsCounter, downloadsCounter, deletesCounter, authorizationsCounter)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
