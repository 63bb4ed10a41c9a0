package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ==================== Prometheus 指标 ====================

var (
	// requestCounter 请求总数
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// requestDuration 请求耗时直方图
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// wsConnections 当前 WebSocket 连接数
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	// ordersPlaced 成功下单数
	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed successfully",
		},
	)
)

var metricsRegistered bool

// RegisterMetrics 注册指标，重复调用安全
func RegisterMetrics() {
	if metricsRegistered {
		return
	}
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(wsConnections)
	prometheus.MustRegister(ordersPlaced)
	metricsRegistered = true
}

// ==================== Gin 中间件 ====================

// Metrics HTTP 指标采集中间件
func Metrics() gin.HandlerFunc {
	RegisterMetrics()

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 用路由模板做标签，避免 /products/123 这类高基数路径
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		requestCounter.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler /metrics 端点
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ==================== 业务指标入口 ====================

// WSConnInc WebSocket 连接建立
func WSConnInc() {
	wsConnections.Inc()
}

// WSConnDec WebSocket 连接断开
func WSConnDec() {
	wsConnections.Dec()
}

// OrderPlacedInc 下单成功
func OrderPlacedInc() {
	ordersPlaced.Inc()
}
