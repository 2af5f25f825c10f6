package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	requestTime  map[string]time.Duration
	errorCount   map[string]int64
	rateLimited  map[string]int64
}

// RouteStat summarises one method/route/status combination.
type RouteStat struct {
	Method      string        `json:"method"`
	Route       string        `json:"route"`
	Status      int           `json:"status"`
	Count       int64         `json:"count"`
	AvgDuration time.Duration `json:"avgDurationNs"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests    []RouteStat      `json:"requests"`
	Errors      map[string]int64 `json:"errors"`
	RateLimited map[string]int64 `json:"rateLimited"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		rateLimited:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(route, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	key := route + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
	if code == "RATE_LIMITED" {
		m.rateLimited[route]++
	}
}

// Snapshot copies the current counters, ordered by route then method.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Errors: map[string]int64{}, RateLimited: map[string]int64{}}
	if m == nil {
		return snap
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, count := range m.requestCount {
		parts := strings.SplitN(key, "|", 3)
		if len(parts) != 3 {
			continue
		}
		status, _ := strconv.Atoi(parts[2])
		snap.Requests = append(snap.Requests, RouteStat{
			Route:       parts[0],
			Method:      parts[1],
			Status:      status,
			Count:       count,
			AvgDuration: m.requestTime[key] / time.Duration(count),
		})
	}
	for key, count := range m.errorCount {
		snap.Errors[key] = count
	}
	for route, count := range m.rateLimited {
		snap.RateLimited[route] = count
	}

	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})
	return snap
}

func pathKey(route, method string, status int) string {
	return route + "|" + method + "|" + strconv.Itoa(status)
}
