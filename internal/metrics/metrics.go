package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shiling"

var (
	httpRequestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.005,
				0.99: 0.001,
			},
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	fulfillmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_fulfillment_total",
			Help:      "Payment confirmations handled, by result",
		},
		[]string{"result"},
	)

	deliveryPlansCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_plans_created_total",
			Help:      "Delivery plans materialized, by source and policy",
		},
		[]string{"source", "policy"},
	)

	giftClaimTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gift_claim_total",
			Help:      "Gift claim attempts, by result",
		},
		[]string{"result"},
	)

	deliveryBatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_batch_plans_total",
			Help:      "Delivery plans processed by operations batches",
		},
		[]string{"operation"},
	)

	notificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_dispatch_total",
			Help:      "Subscribe message dispatch outcomes, by scene",
		},
		[]string{"scene", "outcome"},
	)
)

// Middleware 记录 HTTP 请求耗时与次数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, statusCode).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
	}
}

// Handler 暴露 Prometheus 指标
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveFulfillment 记录支付确认处理结果
func ObserveFulfillment(result string) {
	fulfillmentTotal.WithLabelValues(result).Inc()
}

// ObservePlansCreated 记录生成的配送计划数
func ObservePlansCreated(source, policy string, count int) {
	if count <= 0 {
		return
	}
	deliveryPlansCreated.WithLabelValues(source, policy).Add(float64(count))
}

// ObserveGiftClaim 记录礼物领取结果
func ObserveGiftClaim(result string) {
	giftClaimTotal.WithLabelValues(result).Inc()
}

// ObserveDeliveryBatch 记录批量操作处理的计划数
func ObserveDeliveryBatch(operation string, count int) {
	if count <= 0 {
		return
	}
	deliveryBatchTotal.WithLabelValues(operation).Add(float64(count))
}

// ObserveNotification 记录订阅消息派发结果
func ObserveNotification(scene, outcome string) {
	notificationTotal.WithLabelValues(scene, outcome).Inc()
}
