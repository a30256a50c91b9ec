package datetime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate(t *testing.T) {
	d := NewDate(2024, time.December, 25)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 25, d.Day())
	assert.Equal(t, time.UTC, d.Location())
}

func TestDateOf(t *testing.T) {
	budapest := time.FixedZone("CET", 3600)

	// 23:30 UTC is already the next day at UTC+1
	instant := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-10", DateOf(instant, time.UTC).String())
	assert.Equal(t, "2024-03-11", DateOf(instant, budapest).String())
	assert.Equal(t, "2024-03-10", DateOf(instant, nil).String())
}

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		d, err := ParseDate("2024-12-25")
		require.NoError(t, err)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.December, d.Month())
		assert.Equal(t, 25, d.Day())
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := ParseDate("not-a-date")
		assert.Error(t, err)
	})

	t.Run("wrong format", func(t *testing.T) {
		_, err := ParseDate("25/12/2024")
		assert.Error(t, err)
	})
}

func TestDateComparisons(t *testing.T) {
	d := NewDate(2024, time.May, 1)

	assert.True(t, d.OnOrBefore(NewDate(2024, time.May, 1)))
	assert.True(t, d.OnOrBefore(NewDate(2024, time.May, 2)))
	assert.False(t, d.OnOrBefore(NewDate(2024, time.April, 30)))
	assert.True(t, d.AddDays(1).Equal(NewDate(2024, time.May, 2)))
	assert.Equal(t, "2024-04-30", d.AddDays(-1).String())
}

func TestDateMarshalJSON(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		data, err := json.Marshal(NewDate(2024, time.December, 25))
		require.NoError(t, err)
		assert.Equal(t, `"2024-12-25"`, string(data))
	})

	t.Run("zero date", func(t *testing.T) {
		data, err := json.Marshal(Date{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))
	})
}

func TestDateUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "date-only format", input: `"2024-12-25"`, want: "2024-12-25"},
		{name: "RFC3339 format", input: `"2024-12-25T10:30:00Z"`, want: "2024-12-25"},
		{name: "null value", input: `null`, want: ""},
		{name: "empty string", input: `""`, want: ""},
		{name: "invalid format", input: `"invalid-date"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestStartOfTomorrow(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, time.December, 31, 22, 15, 0, 0, loc)

	got := StartOfTomorrow(now, loc)

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, loc), got)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, loc), StartOfDay(now, loc))
}

func TestSameDay(t *testing.T) {
	loc := time.UTC
	base := time.Date(2024, time.June, 1, 23, 55, 0, 0, loc)

	assert.True(t, SameDay(base, base.Add(-10*time.Hour), loc))
	assert.False(t, SameDay(base, base.Add(10*time.Minute), loc))
	assert.False(t, SameDay(time.Time{}, base, loc))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
	assert.NotNil(t, LoadLocation(""))
}
