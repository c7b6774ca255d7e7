// Package midnight implements the late-night circle policy: circles matched
// between 23:00 and 03:00 on eligible themes become midnight circles with a
// rotating special theme and are auto-deleted at sunrise.
package midnight

import (
	"strings"
	"time"
)

const (
	windowStartHour = 23
	windowEndHour   = 3
	sunriseHour     = 6
)

// specialThemes rotates by weekday; the same theme applies to every midnight
// circle created on a given calendar day.
var specialThemes = []string{
	"Late Night Confessions",
	"Midnight Vulnerability",
	"After Dark Thoughts",
	"Insomnia Circle",
	"Night Owl Support",
	"3 AM Realizations",
}

// eligibleThemes are the base themes that convert into midnight circles when
// matched inside the window.
var eligibleThemes = map[string]bool{
	"loneliness":  true,
	"anxiety":     true,
	"overwhelmed": true,
	"insomnia":    true,
}

// IsWindow reports whether now falls inside the midnight window (23:00-03:00
// local time).
func IsWindow(now time.Time) bool {
	hour := now.Hour()
	return hour >= windowStartHour || hour < windowEndHour
}

// NextWindowStart returns 23:00 today when outside the window, or now itself
// when the window is already open.
func NextWindowStart(now time.Time) time.Time {
	if IsWindow(now) {
		return now
	}
	return time.Date(now.Year(), now.Month(), now.Day(), windowStartHour, 0, 0, 0, now.Location())
}

// NextSunrise returns the next 06:00: today if the hour is still before six,
// otherwise tomorrow.
func NextSunrise(now time.Time) time.Time {
	sunrise := time.Date(now.Year(), now.Month(), now.Day(), sunriseHour, 0, 0, 0, now.Location())
	if now.Hour() >= sunriseHour {
		sunrise = sunrise.AddDate(0, 0, 1)
	}
	return sunrise
}

// ThemeFor picks the special theme for circles created on now's calendar day.
func ThemeFor(now time.Time) string {
	return specialThemes[int(now.Weekday())%len(specialThemes)]
}

// IsEligible reports whether a group matched on theme at this instant should
// become a midnight circle. A circle's type is fixed at creation; crossing a
// window boundary mid-session never re-types it.
func IsEligible(theme string, now time.Time) bool {
	if !IsWindow(now) {
		return false
	}
	return eligibleThemes[strings.ToLower(theme)]
}

// UntilWindow returns the remaining time before the next window opens, zero
// when already inside it.
func UntilWindow(now time.Time) time.Duration {
	next := NextWindowStart(now)
	if !next.After(now) {
		return 0
	}
	return next.Sub(now)
}
