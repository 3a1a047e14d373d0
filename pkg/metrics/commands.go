package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics records outcome counters and latency for escrow commands.
type CommandMetrics struct {
	duration *prometheus.HistogramVec
	applied  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	payouts  prometheus.Counter
	refunds  prometheus.Counter
}

// NewCommandMetrics registers the command metrics on the provided registerer.
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	if reg == nil {
		return &CommandMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "command_duration_seconds",
		Help:    "Duration of escrow commands in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "command_applied_total",
		Help: "Commands that fully applied.",
	}, []string{"command"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "command_rejected_total",
		Help: "Commands rejected before any state change.",
	}, []string{"command", "code"})
	payouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_minor_total",
		Help: "Cumulative helper payout amount in minor units.",
	})
	refunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refund_amount_minor_total",
		Help: "Cumulative refunded escrow amount in minor units.",
	})
	reg.MustRegister(duration, applied, rejected, payouts, refunds)
	return &CommandMetrics{
		duration: duration,
		applied:  applied,
		rejected: rejected,
		payouts:  payouts,
		refunds:  refunds,
	}
}

// ObserveDuration records the duration for the named command.
func (c *CommandMetrics) ObserveDuration(command string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(command)).Observe(duration.Seconds())
}

// IncApplied increments the applied counter for the named command.
func (c *CommandMetrics) IncApplied(command string) {
	if c == nil || c.applied == nil {
		return
	}
	c.applied.WithLabelValues(normalizeLabel(command)).Inc()
}

// IncRejected increments the rejected counter for the named command and error code.
func (c *CommandMetrics) IncRejected(command, code string) {
	if c == nil || c.rejected == nil {
		return
	}
	c.rejected.WithLabelValues(normalizeLabel(command), normalizeLabel(code)).Inc()
}

// AddPayout accumulates a released helper payout.
func (c *CommandMetrics) AddPayout(amountMinor int64) {
	if c == nil || c.payouts == nil || amountMinor <= 0 {
		return
	}
	c.payouts.Add(float64(amountMinor))
}

// AddRefund accumulates a refunded escrow amount.
func (c *CommandMetrics) AddRefund(amountMinor int64) {
	if c == nil || c.refunds == nil || amountMinor <= 0 {
		return
	}
	c.refunds.Add(float64(amountMinor))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
