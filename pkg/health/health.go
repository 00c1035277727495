// Package health aggregates health checks across the storage adapters
// registered as transaction resources.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/txscope/txscope/pkg/store"
)

// Status represents the health status of a resource
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the outcome of one resource's health check
type CheckResult struct {
	Resource  string        `json:"resource"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// AggregatedResult represents the combined result over all resources
type AggregatedResult struct {
	Status    Status        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// IsHealthy returns true if every resource reported healthy
func (r AggregatedResult) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Registry tracks the resources whose health is monitored.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]store.Adapter
	timeout   time.Duration
}

// NewRegistry creates a registry with a per-check timeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Registry{
		resources: make(map[string]store.Adapter),
		timeout:   timeout,
	}
}

// Register adds a resource under the given name, replacing any previous
// registration with that name.
func (r *Registry) Register(name string, adapter store.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[name] = adapter
}

// Unregister removes a resource from monitoring.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resources, name)
}

// List returns the names of all registered resources.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	return names
}

// CheckOne runs the health check of a single resource by name.
func (r *Registry) CheckOne(ctx context.Context, name string) (CheckResult, error) {
	r.mu.RLock()
	adapter, exists := r.resources[name]
	r.mu.RUnlock()
	if !exists {
		return CheckResult{}, fmt.Errorf("resource not registered: %s", name)
	}
	return r.check(ctx, name, adapter), nil
}

// Check runs every registered resource's health check concurrently and
// aggregates the results. Any unhealthy resource makes the overall status
// unhealthy.
func (r *Registry) Check(ctx context.Context) AggregatedResult {
	r.mu.RLock()
	resources := make(map[string]store.Adapter, len(r.resources))
	for name, adapter := range r.resources {
		resources[name] = adapter
	}
	r.mu.RUnlock()

	start := time.Now()
	resultsChan := make(chan CheckResult, len(resources))
	var wg sync.WaitGroup

	for name, adapter := range resources {
		wg.Add(1)
		go func(name string, adapter store.Adapter) {
			defer wg.Done()
			resultsChan <- r.check(ctx, name, adapter)
		}(name, adapter)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	overall := StatusHealthy
	results := make([]CheckResult, 0, len(resources))
	for result := range resultsChan {
		results = append(results, result)
		if result.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		}
	}

	return AggregatedResult{
		Status:    overall,
		Checks:    results,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
}

func (r *Registry) check(ctx context.Context, name string, adapter store.Adapter) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := adapter.HealthCheck(checkCtx)
	result := CheckResult{
		Resource:  name,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}
