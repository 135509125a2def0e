package router

import (
	"net/http"
	"slices"
	"strings"

	"LiveTable/internal/config"
)

// corsPolicy is parsed once from configuration and shared by every route.
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{credentials: cfg.AllowCredentials}
	for _, o := range strings.Split(cfg.AllowOrigin, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.wildcard = true
		}
		p.origins = append(p.origins, o)
	}
	// nothing configured behaves like "*"
	if len(p.origins) == 0 {
		p.wildcard = true
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin and whether the answer depends on that origin.
func (p corsPolicy) allowOrigin(requestOrigin string) (value string, varyOrigin bool) {
	if p.wildcard {
		// browsers reject "*" together with credentials
		if p.credentials && requestOrigin != "" {
			return requestOrigin, true
		}
		return "*", false
	}
	if requestOrigin != "" && slices.Contains(p.origins, requestOrigin) {
		return requestOrigin, true
	}
	return "", true
}

// withCORS adds CORS headers and answers preflight requests itself.
func withCORS(p corsPolicy, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, vary := p.allowOrigin(r.Header.Get("Origin"))
		hdr := w.Header()
		if value != "" {
			hdr.Set("Access-Control-Allow-Origin", value)
		}
		if vary {
			hdr.Set("Vary", "Origin")
		}
		if p.credentials {
			hdr.Set("Access-Control-Allow-Credentials", "true")
		}
		hdr.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Authorization, X-Request-ID")
		hdr.Set("Access-Control-Expose-Headers", "X-Request-ID")
		hdr.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}
