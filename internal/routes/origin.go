package routes

import (
	"net/http"
	"strings"
	"sync"
)

var (
	originMu       sync.RWMutex
	allowedOrigins map[string]struct{}
)

// SetAllowedOrigins installs the origin allowlist for websocket upgrades.
// An empty list allows every origin, which suits same-host deployments where
// the page server and this process share an address.
func SetAllowedOrigins(origins []string) {
	normalized := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			normalized[origin] = struct{}{}
		}
	}
	originMu.Lock()
	allowedOrigins = normalized
	originMu.Unlock()
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originMu.RLock()
	defer originMu.RUnlock()
	if len(allowedOrigins) == 0 {
		return true
	}
	_, ok := allowedOrigins[strings.TrimRight(origin, "/")]
	return ok
}
