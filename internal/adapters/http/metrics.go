package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interviewsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_interviews_started_total",
		Help: "Interviews started, by interview id.",
	}, []string{"interview"})

	interviewUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_interview_updates_total",
		Help: "Interview updates, by outcome (question, exit, completed, invalid, error).",
	}, []string{"outcome"})
)
