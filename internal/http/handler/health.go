package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/http/dto"
	"chatgateway/internal/infra/container"
	"chatgateway/pkg/logger"
)

// HealthHandler handles health and metrics requests (6).
type HealthHandler struct {
	container *container.Container
	logger    logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(container *container.Container, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		container: container,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]interface{})

	dbHealth := &dto.ServiceHealth{Status: "healthy"}
	if h.container != nil && h.container.DBConnection != nil {
		if err := h.container.Health(); err != nil {
			dbHealth.Status = "unhealthy"
			dbHealth.Message = err.Error()
		}
	} else {
		dbHealth.Status = "unhealthy"
		dbHealth.Message = "database connection not initialized"
	}
	services["database"] = dbHealth

	managerHealth := &dto.ServiceHealth{Status: "healthy"}
	if h.container == nil || h.container.Manager == nil {
		managerHealth.Status = "unhealthy"
		managerHealth.Message = "instance manager not initialized"
	}
	services["instance_manager"] = managerHealth

	overallStatus := "healthy"
	for _, service := range services {
		if sh, ok := service.(*dto.ServiceHealth); ok && sh.Status != "healthy" {
			overallStatus = "unhealthy"
			break
		}
	}

	response := &dto.HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(h.startTime).String(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// Metrics handles GET /metrics
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	instanceMetrics := dto.InstanceMetrics{}
	for _, s := range h.container.GetManagerStats() {
		instanceMetrics.Total++
		switch s.Status {
		case instance.StatusActive:
			instanceMetrics.Active++
		case instance.StatusConnecting, instance.StatusQRReady:
			instanceMetrics.Connecting++
		case instance.StatusReconnecting:
			instanceMetrics.Reconnecting++
		case instance.StatusInactive, instance.StatusPending:
			instanceMetrics.Inactive++
		case instance.StatusError:
			instanceMetrics.Error++
		case instance.StatusLoggedOut:
			instanceMetrics.LoggedOut++
		}
	}

	response := &dto.MetricsResponse{
		Instances: instanceMetrics,
		Webhooks:  dto.WebhookMetrics{},
		System: dto.SystemMetrics{
			Uptime:         time.Since(h.startTime).String(),
			DatabaseStatus: "healthy",
		},
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
