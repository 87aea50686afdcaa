package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bartender"

// Metrics holds the Prometheus collectors fed by the bot's lifecycle hooks.
type Metrics struct {
	turns           *prometheus.CounterVec
	turnDuration    *prometheus.HistogramVec
	intents         *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	orders          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of processed turns by outcome",
			},
			[]string{"outcome"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of turns, including persistence",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Total number of classified root messages by intent",
			},
			[]string{"intent"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Total number of finished recommendations by strategy and result",
			},
			[]string{"strategy", "result"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of placed orders by chaser and side dish",
			},
			[]string{"chaser", "side_dish"},
		),
	}

	for _, c := range []prometheus.Collector{m.turns, m.turnDuration, m.intents, m.recommendations, m.orders} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.turns.WithLabelValues(e.Outcome).Inc()
			m.turnDuration.WithLabelValues(e.Outcome).Observe(e.Duration.Seconds())
		},
		OnIntent: func(_ context.Context, e *domain.IntentEvent) {
			m.intents.WithLabelValues(string(e.Intent)).Inc()
		},
		OnRecommendation: func(_ context.Context, e *domain.RecommendationEvent) {
			result := "resolved"
			if e.Beer == nil {
				result = "exhausted"
			}
			m.recommendations.WithLabelValues(string(e.Strategy), result).Inc()
		},
		OnOrderPlaced: func(_ context.Context, e *domain.OrderEvent) {
			m.orders.WithLabelValues(string(e.Order.Chaser), string(e.Order.SideDish)).Inc()
		},
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// TurnsCounter exposes the turn counter, labelled by outcome.
func (m *Metrics) TurnsCounter() *prometheus.CounterVec { return m.turns }

// IntentsCounter exposes the intent counter.
func (m *Metrics) IntentsCounter() *prometheus.CounterVec { return m.intents }

// RecommendationsCounter exposes the recommendation counter, labelled by strategy and result.
func (m *Metrics) RecommendationsCounter() *prometheus.CounterVec { return m.recommendations }

// OrdersCounter exposes the order counter.
func (m *Metrics) OrdersCounter() *prometheus.CounterVec { return m.orders }
