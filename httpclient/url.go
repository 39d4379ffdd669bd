package httpclient

import (
	"net/url"
	"strconv"
)

// target is a validated request destination: scheme, host, a resolved
// port, and the request-line path (including any query string).
type target struct {
	scheme string
	host   string
	port   int
	path   string
}

// parseTarget validates raw's URL: schemes http and https only,
// default ports 80 and 443, ports restricted to (0, 65535]. Any
// violation is a caller bug, not a returned error — an invalid URL is
// a programming mistake, not a runtime condition.
func parseTarget(raw string) *target {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		callerBug("invalid URL %q", raw)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		callerBug("unsupported scheme %q in URL %q", u.Scheme, raw)
	}

	host := u.Hostname()
	if host == "" {
		callerBug("missing host in URL %q", raw)
	}

	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			callerBug("invalid port in URL %q", raw)
		}
		port = n
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return &target{scheme: u.Scheme, host: host, port: port, path: path}
}
