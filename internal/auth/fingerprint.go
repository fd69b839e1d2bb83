package auth

import (
	"net/http"
	"strconv"
	"strings"
)

// Signals are the environment attributes a device fingerprint is derived
// from. Clients report them at login; SignalsFromRequest builds a coarser set
// from request headers when none are reported.
type Signals struct {
	UserAgent             string `json:"user_agent"`
	Locale                string `json:"locale"`
	ScreenWidth           int    `json:"screen_width"`
	ScreenHeight          int    `json:"screen_height"`
	TimezoneOffsetMinutes int    `json:"timezone_offset_minutes"`
	Canvas                string `json:"canvas"`
}

// Fingerprint deterministically derives a low-entropy identifier from the
// signals: concatenate, then fold through a 32-bit rolling hash
// (h = h*31 + codepoint, wrapped to signed 32-bit), absolute value, hex.
//
// This is an unauthenticated heuristic: stable for a given device/browser
// configuration, not collision-resistant, and never a security credential.
// It exists solely as the attempt limiter's bucketing key.
func Fingerprint(s Signals) string {
	seed := strings.Join([]string{
		s.UserAgent,
		s.Locale,
		strconv.Itoa(s.ScreenWidth) + "x" + strconv.Itoa(s.ScreenHeight),
		strconv.Itoa(s.TimezoneOffsetMinutes),
		s.Canvas,
	}, "|")

	var h int32
	for _, r := range seed {
		h = h*31 + int32(r)
	}

	// Widen before negating: -MinInt32 does not fit in int32
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// SignalsFromRequest derives fallback signals from request headers. Coarser
// than client-reported signals but still deterministic per device/browser.
func SignalsFromRequest(r *http.Request) Signals {
	locale := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(locale, ",;"); i >= 0 {
		locale = locale[:i]
	}
	return Signals{
		UserAgent: r.Header.Get("User-Agent"),
		Locale:    strings.TrimSpace(locale),
	}
}
