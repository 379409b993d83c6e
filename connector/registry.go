package connector

import (
	"sort"
	"sync"
	"time"

	"github.com/kbukum/connector/resilience"
)

// Resources are the guards shared by every call against one endpoint.
type Resources struct {
	Config         EndpointConfig
	CircuitBreaker *resilience.CircuitBreaker
	Bulkhead       *resilience.Bulkhead
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter *resilience.RateLimiter
}

// StateChangeFunc observes circuit breaker transitions.
type StateChangeFunc func(endpoint string, from, to resilience.State)

// Registry creates endpoint resources on first use and keeps them for the
// life of the process. The first configuration seen for a name wins.
type Registry struct {
	mu            sync.RWMutex
	resources     map[string]*Resources
	onStateChange StateChangeFunc
}

// NewRegistry creates an empty registry. onStateChange may be nil.
func NewRegistry(onStateChange StateChangeFunc) *Registry {
	return &Registry{
		resources:     make(map[string]*Resources),
		onStateChange: onStateChange,
	}
}

// ResourcesFor returns the resources for cfg.Name, creating them at most once.
func (r *Registry) ResourcesFor(cfg EndpointConfig) *Resources {
	r.mu.RLock()
	res, ok := r.resources[cfg.Name]
	r.mu.RUnlock()
	if ok {
		return res
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.resources[cfg.Name]; ok {
		return res
	}
	res = r.build(cfg)
	r.resources[cfg.Name] = res
	return res
}

// Preload validates and registers cfgs ahead of traffic.
func (r *Registry) Preload(cfgs ...EndpointConfig) error {
	for _, cfg := range cfgs {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.ResourcesFor(cfg)
	}
	return nil
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

func (r *Registry) build(cfg EndpointConfig) *Resources {
	cfg.ApplyDefaults()
	res := &Resources{
		Config: cfg,
		CircuitBreaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:                 cfg.Name,
			WindowSize:           cfg.CircuitBreakerWindowSize,
			FailureRateThreshold: cfg.FailureRateThreshold,
			WaitDuration:         cfg.CircuitBreakerWait,
			HalfOpenMaxCalls:     cfg.HalfOpenCalls,
			OnStateChange:        r.stateChanged,
		}),
		Bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.ConcurrencyLimit,
		}),
	}
	if cfg.RateLimit.Enabled {
		res.RateLimiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:             cfg.Name,
			PermitsPerPeriod: cfg.RateLimit.PermitsPerPeriod,
			Period:           cfg.RateLimit.Period,
			MaxWait:          cfg.RateLimit.MaxWait,
		})
	}
	return res
}

func (r *Registry) stateChanged(name string, from, to resilience.State) {
	if r.onStateChange != nil {
		r.onStateChange(name, from, to)
	}
}

// RateLimitStatus is the live state of a rate limiter.
type RateLimitStatus struct {
	Available        int           `json:"available"`
	PermitsPerPeriod int           `json:"permits_per_period"`
	Period           time.Duration `json:"period"`
}

// EndpointStatus is a point-in-time view of one endpoint.
type EndpointStatus struct {
	Name          string                           `json:"name"`
	Circuit       resilience.CircuitBreakerMetrics `json:"circuit"`
	CircuitState  string                           `json:"circuit_state"`
	BulkheadInUse int                              `json:"bulkhead_in_use"`
	BulkheadLimit int                              `json:"bulkhead_limit"`
	RateLimit     *RateLimitStatus                 `json:"rate_limit,omitempty"`
	Config        EndpointConfig                   `json:"config"`
}

// Snapshot returns the status of every endpoint, sorted by name.
func (r *Registry) Snapshot() []EndpointStatus {
	r.mu.RLock()
	all := make([]*Resources, 0, len(r.resources))
	for _, res := range r.resources {
		all = append(all, res)
	}
	r.mu.RUnlock()

	out := make([]EndpointStatus, 0, len(all))
	for _, res := range all {
		out = append(out, res.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Status returns the status of one endpoint.
func (r *Registry) Status(name string) (EndpointStatus, bool) {
	r.mu.RLock()
	res, ok := r.resources[name]
	r.mu.RUnlock()
	if !ok {
		return EndpointStatus{}, false
	}
	return res.status(), true
}

func (res *Resources) status() EndpointStatus {
	m := res.CircuitBreaker.Metrics()
	st := EndpointStatus{
		Name:          res.Config.Name,
		Circuit:       m,
		CircuitState:  m.State.String(),
		BulkheadInUse: res.Bulkhead.InUse(),
		BulkheadLimit: res.Bulkhead.MaxConcurrent(),
		Config:        res.Config,
	}
	if res.RateLimiter != nil {
		st.RateLimit = &RateLimitStatus{
			Available:        res.RateLimiter.AvailablePermits(),
			PermitsPerPeriod: res.RateLimiter.PermitsPerPeriod(),
			Period:           res.RateLimiter.Period(),
		}
	}
	return st
}
