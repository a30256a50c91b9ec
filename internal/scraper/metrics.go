package scraper

import (
	"sort"
	"sync"
	"time"
)

// ScrapeMetrics holds metrics for a single store scrape
type ScrapeMetrics struct {
	Store           string        `json:"store"`
	StartedAt       time.Time     `json:"startedAt"`
	CompletedAt     time.Time     `json:"completedAt"`
	ProductsScraped int           `json:"productsScraped"`
	Success         bool          `json:"success"`
	ErrorMessage    string        `json:"error,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// MetricsCollector collects and aggregates scrape metrics
type MetricsCollector struct {
	mu             sync.RWMutex
	currentRun     map[string]*ScrapeMetrics
	lastRun        map[string]*ScrapeMetrics
	totalRuns      int
	successfulRuns int
	failedRuns     int
	lastRunTime    time.Time
	now            func() time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[string]*ScrapeMetrics),
		lastRun:    make(map[string]*ScrapeMetrics),
		now:        time.Now,
	}
}

func (mc *MetricsCollector) StartScrape(store string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.currentRun[store] = &ScrapeMetrics{
		Store:     store,
		StartedAt: mc.now(),
	}
}

func (mc *MetricsCollector) RecordSuccess(store string, products int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[store]; ok {
		m.CompletedAt = mc.now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.ProductsScraped = products
		m.Success = true
	}
}

func (mc *MetricsCollector) RecordFailure(store string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[store]; ok {
		m.CompletedAt = mc.now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.Success = false
		if err != nil {
			m.ErrorMessage = err.Error()
		}
	}
}

// FinishRun closes the current run; its metrics become the last run.
func (mc *MetricsCollector) FinishRun() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, m := range mc.currentRun {
		if m.Success {
			mc.successfulRuns++
		} else {
			mc.failedRuns++
		}
	}

	mc.totalRuns++
	mc.lastRunTime = mc.now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[string]*ScrapeMetrics)
}

// GetLastRunMetrics returns copies of the last completed run's metrics
func (mc *MetricsCollector) GetLastRunMetrics() map[string]*ScrapeMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*ScrapeMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		c := *v
		result[k] = &c
	}
	return result
}

// MetricsSummary provides an overview of scraping performance
type MetricsSummary struct {
	TotalRuns              int           `json:"totalRuns"`
	TotalSuccessful        int           `json:"totalSuccessful"`
	TotalFailed            int           `json:"totalFailed"`
	LastRunTime            time.Time     `json:"lastRunTime"`
	LastRunSuccesses       int           `json:"lastRunSuccesses"`
	LastRunFailures        int           `json:"lastRunFailures"`
	LastRunDuration        time.Duration `json:"lastRunDuration"`
	LastRunProductsScraped int           `json:"lastRunProductsScraped"`
}

func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := MetricsSummary{
		TotalRuns:       mc.totalRuns,
		TotalSuccessful: mc.successfulRuns,
		TotalFailed:     mc.failedRuns,
		LastRunTime:     mc.lastRunTime,
	}
	for _, m := range mc.lastRun {
		if m.Success {
			s.LastRunSuccesses++
			s.LastRunProductsScraped += m.ProductsScraped
		} else {
			s.LastRunFailures++
		}
		s.LastRunDuration += m.Duration
	}
	return s
}

// HealthStatus represents the health of the flyer scraper
type HealthStatus struct {
	Healthy         bool              `json:"healthy"`
	LastRunTime     time.Time         `json:"lastRunTime"`
	TotalStores     int               `json:"totalStores"`
	HealthyStores   int               `json:"healthyStores"`
	UnhealthyStores []string          `json:"unhealthyStores,omitempty"`
	StoreStatuses   map[string]string `json:"storeStatuses"`
	Message         string            `json:"message,omitempty"`
}

// GetHealthStatus is healthy when at least 70% of the configured stores
// succeeded in the last run, or when nothing has run yet.
func (mc *MetricsCollector) GetHealthStatus(totalStores int) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		LastRunTime:   mc.lastRunTime,
		TotalStores:   totalStores,
		StoreStatuses: make(map[string]string),
	}

	for store, m := range mc.lastRun {
		if m.Success {
			status.HealthyStores++
			status.StoreStatuses[store] = "healthy"
		} else {
			status.UnhealthyStores = append(status.UnhealthyStores, store)
			status.StoreStatuses[store] = "unhealthy: " + m.ErrorMessage
		}
	}
	sort.Strings(status.UnhealthyStores)

	if totalStores > 0 {
		status.Healthy = float64(status.HealthyStores)/float64(totalStores) >= 0.7
	}

	switch {
	case len(mc.lastRun) == 0:
		status.Healthy = true
		status.Message = "No scrape runs recorded yet"
	case status.Healthy:
		status.Message = "Scraper is operating normally"
	default:
		status.Message = "Some stores are experiencing issues"
	}

	return status
}
