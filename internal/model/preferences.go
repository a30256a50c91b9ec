package model

import "time"

// FetchQuota is the automatic-refresh bookkeeping: last fetch time in unix
// milliseconds and how many automatic fetches ran that day.
type FetchQuota struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// NewFetchQuota records a fetch at t.
func NewFetchQuota(t time.Time, count int) FetchQuota {
	return FetchQuota{Time: t.UnixMilli(), Count: count}
}

// LastFetch returns the recorded fetch time; an empty record reads as the epoch.
func (q FetchQuota) LastFetch() time.Time {
	return time.UnixMilli(q.Time)
}

// LocationErrorCode enumerates why a geolocation read failed.
type LocationErrorCode string

const (
	LocationPermissionDenied    LocationErrorCode = "permission_denied"
	LocationPositionUnavailable LocationErrorCode = "position_unavailable"
	LocationTimeout             LocationErrorCode = "timeout"
	LocationUnsupported         LocationErrorCode = "unsupported"
)

// Message returns the inline notice shown for a geolocation failure.
func (c LocationErrorCode) Message() string {
	switch c {
	case LocationPermissionDenied:
		return "Helymeghatározás letiltva. A helyi ajánlatokhoz engedélyezd a hozzáférést."
	case LocationPositionUnavailable:
		return "Helymeghatározási adatok nem elérhetők."
	case LocationTimeout:
		return "Időtúllépés a helymeghatározás során."
	case LocationUnsupported:
		return "A böngésződ nem támogatja a helymeghatározást."
	default:
		return "Ismeretlen hiba történt a helymeghatározás során."
	}
}
