package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking and call flows.
type BookingMetrics struct {
	appointmentsCreated *prometheus.CounterVec
	callsProcessed      *prometheus.CounterVec
	callDuration        *prometheus.HistogramVec
	queueRetries        prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		appointmentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialbook",
			Subsystem: "booking",
			Name:      "appointments_created_total",
			Help:      "Total appointment requests accepted, by initial status",
		}, []string{"status"}),
		callsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialbook",
			Subsystem: "calls",
			Name:      "processed_total",
			Help:      "Total outbound call jobs processed, by outcome",
		}, []string{"outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dialbook",
			Subsystem: "calls",
			Name:      "duration_seconds",
			Help:      "Duration of outbound call attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		queueRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dialbook",
			Subsystem: "callqueue",
			Name:      "retries_total",
			Help:      "Total call jobs re-scheduled by the retry policy",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsCreated, m.callsProcessed, m.callDuration, m.queueRetries)
	return m
}

func (m *BookingMetrics) ObserveAppointmentCreated(status string) {
	if m == nil {
		return
	}
	m.appointmentsCreated.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCallProcessed(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.callsProcessed.WithLabelValues(outcome).Inc()
	m.callDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveQueueRetry() {
	if m == nil {
		return
	}
	m.queueRetries.Inc()
}
