// Package metrics provides observability for the raffle module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks raffle activity across epochs.
type Metrics struct {
	// Entry and refund volume
	Entries prometheus.Counter
	Refunds prometheus.Counter

	// Settlement outcomes by result ("settled", "transfer_failed", ...)
	Settlements *prometheus.CounterVec

	// Collectible rarities minted
	Rarities *prometheus.CounterVec

	// Settlement latency including host ledger transfers
	SettleLatency prometheus.Histogram

	// Live round state
	PoolBalance   prometheus.Gauge
	OccupiedSlots prometheus.Gauge
}

// New creates a Metrics instance with all raffle metrics registered.
func New() *Metrics {
	return &Metrics{
		Entries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tombola_raffle_entries_total",
			Help: "Total accepted raffle entries",
		}),

		Refunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tombola_raffle_refunds_total",
			Help: "Total refunded raffle slots",
		}),

		Settlements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tombola_raffle_settlements_total",
			Help: "Total settlement attempts by result",
		}, []string{"result"}),

		Rarities: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tombola_raffle_collectibles_total",
			Help: "Total collectibles minted by rarity",
		}, []string{"rarity"}),

		SettleLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tombola_raffle_settle_duration_seconds",
			Help:    "Duration of settlement including prize transfers",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_raffle_pool_balance",
			Help: "Entrance fees collected for the current epoch",
		}),

		OccupiedSlots: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_raffle_occupied_slots",
			Help: "Occupied slots in the current epoch",
		}),
	}
}

// IncrementEntries records an accepted entry.
func (m *Metrics) IncrementEntries() {
	if m != nil {
		m.Entries.Inc()
	}
}

// IncrementRefunds records a refunded slot.
func (m *Metrics) IncrementRefunds() {
	if m != nil {
		m.Refunds.Inc()
	}
}

// IncrementSettlements records a settlement attempt outcome.
func (m *Metrics) IncrementSettlements(result string) {
	if m != nil {
		m.Settlements.WithLabelValues(result).Inc()
	}
}

// IncrementRarity records a minted collectible.
func (m *Metrics) IncrementRarity(rarity string) {
	if m != nil {
		m.Rarities.WithLabelValues(rarity).Inc()
	}
}

// ObserveSettleLatency records how long a settlement took.
func (m *Metrics) ObserveSettleLatency(d time.Duration) {
	if m != nil {
		m.SettleLatency.Observe(d.Seconds())
	}
}

// SetRoundState updates the live pool and occupancy gauges.
func (m *Metrics) SetRoundState(pool int64, occupied int) {
	if m != nil {
		m.PoolBalance.Set(float64(pool))
		m.OccupiedSlots.Set(float64(occupied))
	}
}
