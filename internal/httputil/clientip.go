package httputil

import (
	"net"
	"net/http"
)

// ClientIP returns the request's peer address without its port. Forwarding
// headers are not consulted here; the server rewrites RemoteAddr from them
// only when it is configured to sit behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
