// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

type Metrics struct {
	SessionsOnline  prometheus.Gauge
	MatchesActive   prometheus.Gauge
	MatchesFinished prometheus.Counter
	TurnsCompleted  prometheus.Counter
	AmountWagered   prometheus.Counter
	TurnLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		SessionsOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_online",
			Help:      "Number of online player sessions",
		}),
		MatchesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matches_active",
			Help:      "Number of non-terminal matches",
		}),
		MatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Total number of finished matches",
		}),
		TurnsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_completed_total",
			Help:      "Total number of completed turns",
		}),
		AmountWagered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amount_wagered_total",
			Help:      "Total amount staked into prize pools",
		}),
		TurnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_seconds",
			Help:      "Turn processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.SessionsOnline,
		m.MatchesActive,
		m.MatchesFinished,
		m.TurnsCompleted,
		m.AmountWagered,
		m.TurnLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncSessions() {
	m.metrics.SessionsOnline.Inc()
}

func (m *Monitor) DecSessions() {
	m.metrics.SessionsOnline.Dec()
}

func (m *Monitor) SetActiveMatches(count int) {
	m.metrics.MatchesActive.Set(float64(count))
}

func (m *Monitor) IncMatchesFinished() {
	m.metrics.MatchesFinished.Inc()
}

func (m *Monitor) IncTurnsCompleted() {
	m.metrics.TurnsCompleted.Inc()
}

func (m *Monitor) AddAmountWagered(amount decimal.Decimal) {
	f, _ := amount.Float64()
	m.metrics.AmountWagered.Add(f)
}

func (m *Monitor) ObserveTurnLatency(duration time.Duration) {
	m.metrics.TurnLatency.Observe(duration.Seconds())
}
