package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akciovadasz/backend/internal/model"
)

func TestRefreshPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	policy := DefaultRefreshPolicy(budapest)
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, budapest)

	tests := []struct {
		name  string
		quota model.FetchQuota
		now   time.Time
		want  RefreshDecision
	}{
		{
			name:  "never fetched",
			quota: model.FetchQuota{},
			now:   now,
			want:  RefreshDecision{TodayCount: 0, Stale: true, UnderQuota: true, Trigger: true},
		},
		{
			name:  "fetched 7 hours ago is not stale",
			quota: model.NewFetchQuota(now.Add(-7*time.Hour), 0),
			now:   now,
			want:  RefreshDecision{TodayCount: 0, Stale: false, UnderQuota: true, Trigger: false},
		},
		{
			name:  "fetched 9 hours ago triggers",
			quota: model.NewFetchQuota(now.Add(-9*time.Hour), 0),
			now:   now,
			want:  RefreshDecision{TodayCount: 0, Stale: true, UnderQuota: true, Trigger: true},
		},
		{
			name:  "exactly 8 hours is not stale",
			quota: model.NewFetchQuota(now.Add(-8*time.Hour), 1),
			now:   now,
			want:  RefreshDecision{TodayCount: 1, Stale: false, UnderQuota: true, Trigger: false},
		},
		{
			name:  "quota used up today",
			quota: model.NewFetchQuota(time.Date(2025, 3, 10, 0, 30, 0, 0, budapest), 3),
			now:   now,
			want:  RefreshDecision{TodayCount: 3, Stale: true, UnderQuota: false, Trigger: false},
		},
		{
			name:  "count resets on the next calendar day",
			quota: model.NewFetchQuota(time.Date(2025, 3, 9, 14, 0, 0, 0, budapest), 3),
			now:   now,
			want:  RefreshDecision{TodayCount: 0, Stale: true, UnderQuota: true, Trigger: true},
		},
		{
			name:  "ten minutes across midnight resets the count",
			quota: model.NewFetchQuota(time.Date(2025, 3, 9, 23, 55, 0, 0, budapest), 3),
			now:   time.Date(2025, 3, 10, 0, 5, 0, 0, budapest),
			want:  RefreshDecision{TodayCount: 0, Stale: false, UnderQuota: true, Trigger: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Evaluate(tt.quota, tt.now)

			assert.Equal(t, tt.want.TodayCount, got.TodayCount)
			assert.Equal(t, tt.want.Stale, got.Stale)
			assert.Equal(t, tt.want.UnderQuota, got.UnderQuota)
			assert.Equal(t, tt.want.Trigger, got.Trigger)
		})
	}
}

// The calendar day is the configured zone's, not UTC's.
func TestRefreshPolicy_DayBoundaryUsesLocation(t *testing.T) {
	t.Parallel()

	// 22:30 UTC is 23:30 in Budapest; 23:30 UTC is already the next day there.
	last := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	quota := model.NewFetchQuota(last, 3)

	assert.Equal(t, 0, DefaultRefreshPolicy(budapest).Evaluate(quota, now).TodayCount)
	assert.Equal(t, 3, DefaultRefreshPolicy(time.UTC).Evaluate(quota, now).TodayCount)
}

func TestRefreshDecision_Next(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, budapest)
	d := RefreshDecision{TodayCount: 2}

	assert.Equal(t, model.FetchQuota{Time: now.UnixMilli(), Count: 3}, d.Next(now))
}
