package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"token-monitor/internal/models"
)

// ChainStatus is the last known state of one chain monitor
type ChainStatus struct {
	Name              string            `json:"name"`
	LastPoll          time.Time         `json:"last_poll"`
	KnownTransactions int               `json:"known_transactions"`
	LastCycle         models.CycleStats `json:"last_cycle"`
	LastError         string            `json:"last_error,omitempty"`
}

// Registry tracks readiness and per-chain status for the probe handlers
type Registry struct {
	ready    atomic.Bool
	mu       sync.RWMutex
	statuses map[string]*ChainStatus
}

func NewRegistry() *Registry {
	return &Registry{statuses: make(map[string]*ChainStatus)}
}

func (r *Registry) SetReady(ready bool) {
	r.ready.Store(ready)
}

func (r *Registry) IsReady() bool {
	return r.ready.Load()
}

// UpdateChainStatus records the outcome of one poll
func (r *Registry) UpdateChainStatus(name string, at time.Time, known int, stats models.CycleStats, pollErr error) {
	status := &ChainStatus{
		Name:              name,
		LastPoll:          at,
		KnownTransactions: known,
		LastCycle:         stats,
	}
	if pollErr != nil {
		status.LastError = pollErr.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = status
}

// Statuses returns a copy of every chain status ordered by name
func (r *Registry) Statuses() []ChainStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChainStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (r *Registry) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	statuses := r.Statuses()

	if len(statuses) == 0 || !r.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))

		return
	}

	response := make(map[string]interface{})
	response["status"] = "Ready"
	response["blockchains"] = statuses

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// NewServer exposes /healthz, /readyz and, when metrics is non-nil, /metrics
func NewServer(addr string, registry *Registry, metrics http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", registry.LivenessHandler)
	mux.HandleFunc("/readyz", registry.ReadinessHandler)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
