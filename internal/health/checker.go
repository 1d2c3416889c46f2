// Package health probes the configured ledger gateway endpoints and tracks
// their liveness so the server can report degraded backends before a request
// trips over them.
package health

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantumtrust/trustcore/internal/ledger"
)

// Status of a probed gateway.
const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
	StatusUnknown  = "UNKNOWN"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Target is a gateway endpoint to probe, keyed by the ledger backend it
// serves. An empty endpoint means the backend runs simulated and is skipped.
type Target struct {
	Backend  ledger.Backend
	Endpoint string
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(backend ledger.Backend, success bool)

// Checker runs periodic gateway liveness probes.
type Checker struct {
	targets    []Target
	httpClient *http.Client
	mu         sync.Mutex
	failCounts map[ledger.Backend]int
	statuses   map[ledger.Backend]string
	cfg        Config
	onMetrics  MetricsRecordFunc
	logger     *zap.Logger
}

// New creates a Checker over the given targets. Targets with an empty
// endpoint are dropped.
func New(targets []Target, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	kept := make([]Target, 0, len(targets))
	statuses := make(map[ledger.Backend]string, len(targets))
	for _, t := range targets {
		if t.Endpoint == "" {
			continue
		}
		kept = append(kept, t)
		statuses[t.Backend] = StatusUnknown
	}

	return &Checker{
		targets:    kept,
		httpClient: &http.Client{Timeout: cfg.ProbeTimeout},
		failCounts: make(map[ledger.Backend]int),
		statuses:   statuses,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Snapshot returns the current status per probed backend.
func (h *Checker) Snapshot() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]string, len(h.statuses))
	for b, s := range h.statuses {
		out[string(b)] = s
	}
	return out
}

// Start runs the probe loop until quit is signalled.
func (h *Checker) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), h.cfg.CheckInterval-time.Second)
			h.CheckAll(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// CheckAll probes every configured gateway once.
func (h *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, t := range h.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()

			success := h.probeEndpoint(ctx, t.Endpoint)

			if h.onMetrics != nil {
				h.onMetrics(t.Backend, success)
			}

			h.mu.Lock()
			prevCount := h.failCounts[t.Backend]
			if success {
				h.failCounts[t.Backend] = 0
				h.statuses[t.Backend] = StatusUp
			} else {
				h.failCounts[t.Backend]++
			}
			count := h.failCounts[t.Backend]
			if count >= h.cfg.FailThreshold {
				h.statuses[t.Backend] = StatusDegraded
			}
			h.mu.Unlock()

			if success && prevCount >= h.cfg.FailThreshold {
				h.logger.Info("health: gateway recovered",
					zap.String("backend", string(t.Backend)),
				)
			} else if count == h.cfg.FailThreshold {
				h.logger.Warn("health: gateway degraded",
					zap.String("backend", string(t.Backend)),
					zap.String("endpoint", t.Endpoint),
					zap.Int("fail_count", count),
				)
			}
		}(t)
	}

	wg.Wait()
}

// probeEndpoint attempts HEAD then GET, returning true on any 2xx response.
func (h *Checker) probeEndpoint(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := h.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true
		}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err = h.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
