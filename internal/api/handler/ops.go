package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/roadplanner/roadplanner/internal/api/models"
	"github.com/roadplanner/roadplanner/internal/api/response"
	"github.com/roadplanner/roadplanner/internal/cache"
	"github.com/roadplanner/roadplanner/internal/provider/resilience"
)

// readinessTimeout bounds all readiness checks of one request.
const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency. Check returns nil when it is usable.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// CacheReporter exposes statistics of one provider cache.
type CacheReporter struct {
	Name  string
	Stats func() cache.Stats
}

// OpsConfig configures an OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string
	// Registry reports provider circuit breaker health. Optional.
	Registry *resilience.Registry
	Checks   []ReadinessCheck
	Caches   []CacheReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It returns 503 when any check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.runChecks(r.Context())

	details := make(map[string]any, len(subsystems))
	for _, s := range subsystems {
		if s.Detail != nil {
			details[s.Name] = *s.Detail
		} else {
			details[s.Name] = string(s.Status)
		}
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(h.now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// Provider problems degrade the status but never fail it.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems, status := h.runChecks(r.Context())

	for _, c := range h.cfg.Caches {
		stats := c.Stats()
		detail := fmt.Sprintf("entries=%d fresh=%d stale=%d", stats.TotalEntries, stats.FreshEntries, stats.StaleEntries)
		subsystems = append(subsystems, models.SubsystemStatus{
			Name:   c.Name,
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	providers := h.providerStatuses()
	for _, p := range providers {
		if p.Status != models.HealthStatusOK && status == models.HealthStatusOK {
			status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     status,
		Time:       models.Timestamp(h.now()),
		Subsystems: subsystems,
		Providers:  providers,
	})
}

func (h *OpsHandler) runChecks(ctx context.Context) ([]models.SubsystemStatus, models.HealthStatus) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	status := models.HealthStatusOK
	subsystems := make([]models.SubsystemStatus, 0, len(h.cfg.Checks)+len(h.cfg.Caches))
	for _, c := range h.cfg.Checks {
		s := models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
		if err := c.Check(ctx); err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
			status = models.HealthStatusFail
		}
		subsystems = append(subsystems, s)
	}
	return subsystems, status
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:     ph.Name,
			Status:       providerHealthStatus(ph.Status()),
			CircuitState: ph.CircuitState.String(),
		}
		if ph.LastSuccessAt != nil {
			ts := models.Timestamp(*ph.LastSuccessAt)
			ps.LastSuccessAt = &ts
		}
		if ph.LastFailureAt != nil {
			ts := models.Timestamp(*ph.LastFailureAt)
			ps.LastFailureAt = &ts
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func providerHealthStatus(s string) models.HealthStatus {
	switch s {
	case resilience.StatusHealthy:
		return models.HealthStatusOK
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}
