package middleware

import "net/http"

// AllowedUserAgents rejects any request whose User-Agent header is not on
// the configured allow-list, the inbound controller guard supplementing
// spec.md's external interfaces (SPEC_FULL.md §4 ambient stack). An empty
// allow-list disables the check entirely.
func AllowedUserAgents(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if len(set) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := set[r.Header.Get("User-Agent")]; !ok {
				http.Error(w, "user agent not allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
