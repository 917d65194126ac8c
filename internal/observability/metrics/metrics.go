package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the booking assistant.
type ConversationMetrics struct {
	transitions   *prometheus.CounterVec
	parseMisses   *prometheus.CounterVec
	appointments  *prometheus.CounterVec
	inboundTotal  *prometheus.CounterVec
	handleLatency *prometheus.HistogramVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberpro",
			Subsystem: "conversation",
			Name:      "transitions_total",
			Help:      "Conversation state transitions",
		}, []string{"from", "to"}),
		parseMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberpro",
			Subsystem: "conversation",
			Name:      "parse_misses_total",
			Help:      "Messages that did not parse for the awaited entity",
		}, []string{"state"}),
		appointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberpro",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointments stored from conversations",
		}, []string{"result"}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberpro",
			Subsystem: "messaging",
			Name:      "inbound_total",
			Help:      "Inbound customer messages",
		}, []string{"provider", "status"}),
		handleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barberpro",
			Subsystem: "messaging",
			Name:      "handle_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.parseMisses, m.appointments, m.inboundTotal, m.handleLatency)
	return m
}

func (m *ConversationMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *ConversationMetrics) ObserveParseMiss(state string) {
	if m == nil {
		return
	}
	m.parseMisses.WithLabelValues(state).Inc()
}

// ObserveAppointment counts a stored booking; created is false when an
// existing appointment was reused.
func (m *ConversationMetrics) ObserveAppointment(created bool) {
	if m == nil {
		return
	}
	label := "reused"
	if created {
		label = "created"
	}
	m.appointments.WithLabelValues(label).Inc()
}

func (m *ConversationMetrics) ObserveInbound(provider, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(provider, status).Inc()
}

func (m *ConversationMetrics) ObserveLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.handleLatency.WithLabelValues(provider).Observe(seconds)
}
