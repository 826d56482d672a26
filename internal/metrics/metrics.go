package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TicketsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campus_tickets_created_total", Help: "Tickets created, by category"},
		[]string{"category"},
	)
	TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campus_ticket_transitions_total", Help: "Ticket status transitions, by target status"},
		[]string{"status"},
	)
	PermissionDenied = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campus_ticket_permission_denied_total", Help: "Rejected ticket transitions"},
	)
	TicketNumberCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campus_ticket_number_collisions_total", Help: "Ticket number candidates that were already taken"},
	)
	OverdueTickets = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "campus_tickets_overdue", Help: "Open tickets past their escalation window at the last sweep"},
	)

	FeedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "campus_ticket_feed_subscribers", Help: "Connected ticket feed subscribers"},
	)
	FeedDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "campus_ticket_feed_dropped_total", Help: "Feed events dropped for slow subscribers"},
	)

	AssistantQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campus_assistant_queries_total", Help: "Assistant queries, by assistant and response type"},
		[]string{"assistant", "type"},
	)

	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_processed_total", Help: "Total processed outbox events"},
	)
	FailedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_failed_total", Help: "Total failed outbox events"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sync_dlq_total", Help: "Total events inserted into DLQ"},
	)
	DLQPending = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sync_dlq_pending", Help: "Unresolved DLQ entries"},
	)
)

func Register() {
	prometheus.MustRegister(
		TicketsCreated, TicketTransitions, PermissionDenied, TicketNumberCollisions, OverdueTickets,
		FeedSubscribers, FeedDropped,
		AssistantQueries,
		ProcessedEvents, FailedEvents, DLQEvents, DLQPending,
	)
}
