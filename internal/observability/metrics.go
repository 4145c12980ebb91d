package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters exported on /metrics next to the HTTP series.
var (
	// RepliesTotal counts assistant replies by answer source
	// ("playbook", "openai", "fallback").
	RepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_replies_total",
			Help: "Assistant replies produced, by answer source.",
		},
		[]string{"source"},
	)

	// FestivalLookups counts festival listings and how many festivals
	// each returned, bucketed as "none" or "some".
	FestivalLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_festival_lookups_total",
			Help: "Festival listing requests, by whether any festival was upcoming.",
		},
		[]string{"result"},
	)

	// ChatsEvicted counts chats removed by the per-user history cap.
	ChatsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retail_chats_evicted_total",
		Help: "Chats soft-deleted to keep users under the history cap.",
	})

	// MailRequests counts mail triggers by outcome ("relayed", "compose", "failed").
	MailRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_mail_requests_total",
			Help: "Mail trigger requests, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(RepliesTotal, FestivalLookups, ChatsEvicted, MailRequests)
}
