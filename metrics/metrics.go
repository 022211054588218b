// Package metrics defines the service's Prometheus collectors. They are
// registered on the default registry and exposed by the chatd binary on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matechat_messages_created_total",
		Help: "Messages accepted into the store, bot replies included.",
	})

	SpamFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matechat_spam_flagged_total",
		Help: "Messages annotated as spam by the scorer.",
	})

	BotReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matechat_bot_replies_total",
		Help: "Replies injected by the auto-responder.",
	})

	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matechat_events_broadcast_total",
		Help: "Realtime events fanned out, by event type.",
	}, []string{"type"})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matechat_active_connections",
		Help: "Currently open websocket connections.",
	})
)
