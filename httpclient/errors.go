package httpclient

import "fmt"

// ProtocolFailure covers every malformed-wire-format case: a missing
// header/body separator, a missing or malformed status line, an
// invalid chunk size, a malformed chunk, or a malformed trailer. Fetch
// also reports a failed plain-http connect, or a connection whose file
// descriptor cannot be obtained, as a ProtocolFailure.
type ProtocolFailure struct {
	Reason string
}

func (e *ProtocolFailure) Error() string {
	return "httpclient: protocol failure: " + e.Reason
}

// StatusFailure carries an HTTP response status ≥ 400 and the URL that
// produced it.
type StatusFailure struct {
	Status int
	URL    string
}

func (e *StatusFailure) Error() string {
	return fmt.Sprintf("httpclient: http status %d for %s", e.Status, e.URL)
}

// callerBug panics for programmer misuse: an invalid URL, an invalid
// option, or a negative max_bytes (zero selects the default). These are programming mistakes,
// not runtime conditions, and are never recovered.
func callerBug(format string, args ...any) {
	panic(fmt.Sprintf("httpclient: "+format, args...))
}
