// Package telemetry exposes prometheus metrics for the playback engine.
// Scraped via /metrics; see internal/app.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive tracks currently open playback sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_sessions_active",
		Help: "Number of open playback sessions.",
	})

	// SessionsOpened counts sessions ever opened.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_sessions_opened_total",
		Help: "Total playback sessions opened.",
	})

	// MessagesInjected counts messages added to transcripts by thread
	// triggers and replies.
	MessagesInjected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_messages_injected_total",
		Help: "Total messages inserted into transcripts.",
	})

	// RevealsCompleted counts typewriter reveals that reached their
	// natural end.
	RevealsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_reveals_completed_total",
		Help: "Total reveals that reached the end of their text.",
	})

	// ChainAdvances counts phase-cursor advancements written back through
	// the transcript store.
	ChainAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_chain_advances_total",
		Help: "Total phase cursor advancements.",
	})

	// ChainAborts counts advancement steps abandoned because the target
	// message could not be found.
	ChainAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_chain_aborts_total",
		Help: "Total advancement steps aborted on a missing message.",
	})

	// RepliesSubmitted counts user replies accepted by the API.
	RepliesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_replies_total",
		Help: "Total user replies submitted.",
	})

	// ThreadsCompleted counts terminal thread effects that ran.
	ThreadsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_threads_completed_total",
		Help: "Total scripted threads that reached their terminal effect.",
	})
)
