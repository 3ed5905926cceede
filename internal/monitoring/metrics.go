package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu            sync.RWMutex
	RequestCount  int64            `json:"request_count"`
	ErrorCount    int64            `json:"error_count"`
	StatusCodes   map[string]int64 `json:"status_codes"`
	Endpoints     map[string]int64 `json:"endpoint_calls"`
	StartTime     time.Time        `json:"start_time"`
	totalDuration time.Duration
}

type HealthCheckFunc func(ctx context.Context) error

type healthCheck struct {
	name  string
	check HealthCheckFunc
}

type Registry struct {
	metrics Metrics
	checks  []healthCheck
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		metrics: Metrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
			StartTime:   time.Now(),
		},
	}
}

func (r *Registry) RegisterHealthCheck(name string, check HealthCheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, healthCheck{name: name, check: check})
}

// Middleware records request counts, durations and status codes per
// endpoint.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		r.metrics.mu.Lock()
		r.metrics.RequestCount++
		r.metrics.totalDuration += time.Since(start)
		if status >= 400 {
			r.metrics.ErrorCount++
		}
		r.metrics.StatusCodes[http.StatusText(status)]++
		r.metrics.Endpoints[endpoint]++
		r.metrics.mu.Unlock()
	}
}

func (r *Registry) runHealthChecks(ctx context.Context) (map[string]string, bool) {
	r.mu.RLock()
	checks := r.checks
	r.mu.RUnlock()

	results := make(map[string]string, len(checks))
	healthy := true
	for _, hc := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := hc.check(checkCtx)
		cancel()

		if err != nil {
			results[hc.name] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			results[hc.name] = "healthy"
		}
	}
	return results, healthy
}

func (r *Registry) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.metrics.mu.RLock()
		snapshot := gin.H{
			"request_count": r.metrics.RequestCount,
			"error_count":   r.metrics.ErrorCount,
			"status_codes":  r.metrics.StatusCodes,
			"endpoints":     r.metrics.Endpoints,
			"uptime":        time.Since(r.metrics.StartTime).String(),
		}
		if r.metrics.RequestCount > 0 {
			snapshot["avg_request_duration"] = (r.metrics.totalDuration / time.Duration(r.metrics.RequestCount)).String()
		}
		r.metrics.mu.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"application": snapshot,
			"system": gin.H{
				"goroutines": runtime.NumGoroutine(),
				"go_version": runtime.Version(),
			},
			"timestamp": time.Now(),
		})
	}
}

func (r *Registry) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks, healthy := r.runHealthChecks(c.Request.Context())

		status := http.StatusOK
		overall := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"timestamp": time.Now(),
		})
	}
}

func (r *Registry) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, healthy := r.runHealthChecks(c.Request.Context())
		if healthy {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	}
}

func (r *Registry) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": time.Since(r.metrics.StartTime).String(),
		})
	}
}
