package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/subscription-intake/internal/pkg/httputil"
)

// Pinger is a dependency the health checker can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Aggregate and component states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	CheckUp       = "up"
	CheckDown     = "down"
	CheckDegraded = "degraded"
	CheckSkipped  = "not_configured"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the result of probing one dependency.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

type component struct {
	name     string
	pinger   Pinger
	critical bool
	timeout  time.Duration
	slow     time.Duration
}

// HealthChecker probes the directory store (critical) and the fallback
// journal (optional).
type HealthChecker struct {
	components []component
	version    string
	started    time.Time
}

// NewHealthChecker creates a HealthChecker. journal may be nil when Redis is
// not in use.
func NewHealthChecker(store, journal Pinger, version string) *HealthChecker {
	return &HealthChecker{
		components: []component{
			{name: "store", pinger: store, critical: true, timeout: 3 * time.Second, slow: time.Second},
			{name: "journal", pinger: journal, timeout: 2 * time.Second, slow: 500 * time.Millisecond},
		},
		version: version,
		started: time.Now(),
	}
}

// HandleHealth reports every check. It always answers 200.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks, overall := hc.evaluate(r.Context())
	httputil.OK(w, HealthStatus{
		Status:  overall,
		Version: hc.version,
		Uptime:  hc.uptime(),
		Checks:  checks,
	})
}

// HandleLiveness answers 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, map[string]string{"status": "alive", "uptime": hc.uptime()})
}

// HandleReadiness answers 503 only when a critical dependency is not wired.
// A configured store that fails its ping reports "degraded" with 200 since
// intake keeps answering in fallback mode; /health reports it as "unhealthy".
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks, overall := hc.evaluate(r.Context())
	ready := hc.wired()
	if ready && overall == StatusUnhealthy {
		overall = StatusDegraded
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

// wired reports whether every critical component has a pinger.
func (hc *HealthChecker) wired() bool {
	for _, c := range hc.components {
		if c.critical && c.pinger == nil {
			return false
		}
	}
	return true
}

// evaluate probes every component concurrently and folds the results:
// a critical component down makes the service unhealthy, anything else that
// is not up makes it degraded.
func (hc *HealthChecker) evaluate(ctx context.Context) (map[string]ComponentCheck, string) {
	results := make([]ComponentCheck, len(hc.components))
	var wg sync.WaitGroup
	for i, c := range hc.components {
		wg.Add(1)
		go func(i int, c component) {
			defer wg.Done()
			results[i] = c.probe(ctx)
		}(i, c)
	}
	wg.Wait()

	checks := make(map[string]ComponentCheck, len(results))
	overall := StatusHealthy
	for i, res := range results {
		c := hc.components[i]
		checks[c.name] = res
		switch {
		case res.Status == CheckDown && c.critical:
			overall = StatusUnhealthy
		case res.Status == CheckDown, res.Status == CheckDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return checks, overall
}

func (c component) probe(ctx context.Context) ComponentCheck {
	if c.pinger == nil {
		if c.critical {
			return ComponentCheck{Status: CheckDown, Message: "not configured"}
		}
		return ComponentCheck{Status: CheckSkipped}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.pinger.Ping(ctx)
	latency := time.Since(start).Round(time.Microsecond)

	switch {
	case err != nil:
		return ComponentCheck{Status: CheckDown, Latency: latency.String(), Message: err.Error()}
	case latency > c.slow:
		return ComponentCheck{Status: CheckDegraded, Latency: latency.String(), Message: fmt.Sprintf("slow ping (> %s)", c.slow)}
	default:
		return ComponentCheck{Status: CheckUp, Latency: latency.String()}
	}
}

func (hc *HealthChecker) uptime() string {
	return time.Since(hc.started).Truncate(time.Second).String()
}
