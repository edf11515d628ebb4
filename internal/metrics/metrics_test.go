package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter failed: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/plans/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	before := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/plans/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/42", nil))
	after := counterValue(t, httpRequestsTotal.WithLabelValues(http.MethodGet, "/plans/:id", "204"))
	if after-before != 1 {
		t.Fatalf("expected one request recorded, got %v", after-before)
	}
}

func TestObserveNotification(t *testing.T) {
	before := counterValue(t, notificationTotal.WithLabelValues("gift_received", "success"))
	ObserveNotification("gift_received", "success")
	after := counterValue(t, notificationTotal.WithLabelValues("gift_received", "success"))
	if after-before != 1 {
		t.Fatalf("unexpected counter delta: %v", after-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveGiftClaim("claimed")
	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "shiling_gift_claim_total") {
		t.Fatalf("gift claim counter missing from exposition")
	}
}
