// Package middleware contains http.Handler wrappers applied around the mux.
package middleware

import (
	"log"
	"net/http"
	"time"
)

// DebugLogging logs every request with its duration. Only applied when the
// debug config flag is set.
func DebugLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s (%s)", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}
