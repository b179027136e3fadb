package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bassethound_form_submissions_total",
		Help: "Demo form submissions captured.",
	})
	configHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bassethound_config_hits_total",
		Help: "Config lookups that found a fill config.",
	})
	configMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bassethound_config_misses_total",
		Help: "Config lookups that found nothing.",
	})
)

// RegisterMetricsRoute exposes the Prometheus metrics endpoint.
func RegisterMetricsRoute(r gin.IRouter) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
