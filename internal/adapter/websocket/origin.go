package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
)

// NewCheckOrigin returns a CheckOrigin function for the viewer WebSocket upgrader.
// It allows empty origins (same-origin / non-browser clients), the app's own origin
// (derived from appURL) and every origin in allowedOrigins. A "*" entry allows any origin.
// When isDevelopment is true, localhost origins are additionally allowed.
func NewCheckOrigin(appURL string, allowedOrigins []string, isDevelopment bool) func(r *http.Request) bool {
	appOrigin := extractOrigin(appURL)
	allowAny := slices.Contains(allowedOrigins, "*")

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if origin == "" || allowAny {
			return true
		}

		if appOrigin != "" && origin == appOrigin {
			return true
		}

		if slices.Contains(allowedOrigins, origin) {
			return true
		}

		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
