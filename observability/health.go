package observability

import (
	"github.com/kbukum/connector/resilience"
)

// HealthStatus represents the health state of an endpoint or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual endpoint or component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// CircuitHealth maps a circuit state to endpoint health: open is down,
// half-open is degraded.
func CircuitHealth(endpoint string, state resilience.State) Health {
	h := Health{
		Name:    endpoint,
		Status:  HealthStatusUp,
		Details: map[string]string{"circuit": state.String()},
	}
	switch state {
	case resilience.StateOpen:
		h.Status = HealthStatusDown
		h.Message = "circuit open"
	case resilience.StateHalfOpen:
		h.Status = HealthStatusDegraded
		h.Message = "circuit half-open"
	}
	return h
}
