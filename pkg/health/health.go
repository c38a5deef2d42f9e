package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"address-book/pkg/logging"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// HealthCheckFunc adapts a plain function to HealthChecker
type HealthCheckFunc struct {
	name string
	fn   func(ctx context.Context) ComponentHealth
}

func (hcf HealthCheckFunc) Check(ctx context.Context) ComponentHealth { return hcf.fn(ctx) }
func (hcf HealthCheckFunc) Name() string                              { return hcf.name }

// NewHealthCheckFunc creates a new HealthCheckFunc
func NewHealthCheckFunc(name string, fn func(ctx context.Context) ComponentHealth) HealthChecker {
	return HealthCheckFunc{name: name, fn: fn}
}

// HealthManager runs registered checks and aggregates their status
type HealthManager struct {
	checkers  map[string]HealthChecker
	startTime time.Time
	version   string
	timeout   time.Duration
	logger    *logging.ComponentLogger
	mu        sync.RWMutex
}

// HealthConfig holds configuration for the health manager
type HealthConfig struct {
	Timeout time.Duration `json:"timeout"`
	Version string        `json:"version"`
}

// DefaultHealthConfig returns sensible defaults
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout: 2 * time.Second,
		Version: "dev",
	}
}

// NewHealthManager creates a new health manager
func NewHealthManager(config HealthConfig, logger *logging.Logger) *HealthManager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HealthManager{
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   config.Version,
		timeout:   config.Timeout,
		logger:    logger.WithComponent("health"),
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[checker.Name()] = checker
	hm.logger.Debug("Registered health checker", logging.String("checker", checker.Name()))
}

// CheckAll runs every check, each under the manager timeout.
func (hm *HealthManager) CheckAll(ctx context.Context) SystemHealth {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	checkers := make([]HealthChecker, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		checkers = append(checkers, hm.checkers[name])
	}
	hm.mu.RUnlock()

	components := make(map[string]ComponentHealth, len(checkers))
	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
		start := time.Now()
		res := c.Check(checkCtx)
		cancel()
		res.Name = c.Name()
		res.LastChecked = start
		res.Duration = time.Since(start)
		components[res.Name] = res
	}

	status := determineSystemHealth(components)
	if status != HealthStatusHealthy {
		hm.logger.Warn("System not healthy", logging.String("status", string(status)))
	}

	return SystemHealth{
		Status:     status,
		Timestamp:  time.Now(),
		Version:    hm.version,
		Uptime:     time.Since(hm.startTime).Round(time.Second).String(),
		Components: components,
	}
}

// determineSystemHealth: any unhealthy wins, then any degraded.
func determineSystemHealth(components map[string]ComponentHealth) HealthStatus {
	if len(components) == 0 {
		return HealthStatusUnknown
	}
	healthy, degraded := 0, 0
	for _, component := range components {
		switch component.Status {
		case HealthStatusHealthy:
			healthy++
		case HealthStatusDegraded:
			degraded++
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		}
	}
	if degraded > 0 {
		return HealthStatusDegraded
	}
	if healthy == len(components) {
		return HealthStatusHealthy
	}
	return HealthStatusUnknown
}

// Handler serves CheckAll as JSON. Unhealthy and unknown map to 503.
func (hm *HealthManager) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := hm.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		switch health.Status {
		case HealthStatusHealthy, HealthStatusDegraded:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
