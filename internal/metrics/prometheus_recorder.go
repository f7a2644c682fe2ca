package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdredirect"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	documents       *prom.CounterVec
	rewrites        *prom.CounterVec
	fallbacks       *prom.CounterVec
	rewriteDuration prom.Histogram
	httpDuration    *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Processed documents by outcome",
		}, []string{"result"}),
		rewrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rewrites_total",
			Help:      "Rewritten references by kind",
		}, []string{"kind"}),
		fallbacks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Documents returned unchanged after a rewrite failure, by error category",
		}, []string{"category"}),
		rewriteDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rewrite_duration_seconds",
			Help:      "Duration of a single document rewrite",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status code",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(pr.documents, pr.rewrites, pr.fallbacks, pr.rewriteDuration, pr.httpDuration)
	return pr
}

func (p *PrometheusRecorder) IncDocuments(result DocumentResult) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddRewrites(kind RewriteKind, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.rewrites.WithLabelValues(string(kind)).Add(float64(n))
}

func (p *PrometheusRecorder) IncFallback(category string) {
	if p == nil {
		return
	}
	p.fallbacks.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) ObserveRewriteDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.rewriteDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
