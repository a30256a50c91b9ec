package service

import (
	"time"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// RefreshPolicy gates automatic refetches: the last fetch must be older than
// StaleAfter and fewer than DailyLimit automatic fetches may have run on the
// current local calendar day.
type RefreshPolicy struct {
	StaleAfter time.Duration
	DailyLimit int
	Location   *time.Location
}

// DefaultRefreshPolicy returns the 8 hour, 3 per day policy.
func DefaultRefreshPolicy(loc *time.Location) RefreshPolicy {
	return RefreshPolicy{StaleAfter: 8 * time.Hour, DailyLimit: 3, Location: loc}
}

// RefreshDecision is the outcome of one policy evaluation.
type RefreshDecision struct {
	TodayCount  int       `json:"todayCount"`
	Stale       bool      `json:"stale"`
	UnderQuota  bool      `json:"underQuota"`
	Trigger     bool      `json:"trigger"`
	LastFetch   time.Time `json:"lastFetch"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Evaluate decides whether an automatic fetch is due at now.
func (p RefreshPolicy) Evaluate(q model.FetchQuota, now time.Time) RefreshDecision {
	last := q.LastFetch()

	todayCount := 0
	if q.Time != 0 && datetime.SameDay(last, now, p.Location) {
		todayCount = q.Count
	}

	stale := now.Sub(last) > p.StaleAfter
	underQuota := todayCount < p.DailyLimit

	return RefreshDecision{
		TodayCount:  todayCount,
		Stale:       stale,
		UnderQuota:  underQuota,
		Trigger:     stale && underQuota,
		LastFetch:   last,
		EvaluatedAt: now,
	}
}

// Next returns the quota to record after an automatic fetch at now.
func (d RefreshDecision) Next(now time.Time) model.FetchQuota {
	return model.NewFetchQuota(now, d.TodayCount+1)
}
