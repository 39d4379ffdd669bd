package httpclient

// Options is the fetch configuration table.
type Options struct {
	Method         string
	Headers        map[string]string
	Body           string
	JSON           bool
	Verify         bool
	ConnectTimeout float64
	MaxBytes       int
}

// DefaultOptions returns the fetch defaults: GET, no extra headers,
// empty body, verify true, a 30s connect timeout, and an
// 8,000,000-byte response cap.
func DefaultOptions() Options {
	return Options{
		Method:         "GET",
		Verify:         true,
		ConnectTimeout: 30,
		MaxBytes:       8_000_000,
	}
}

// normalize fills in zero-value fields with their default and panics
// on a caller bug.
func (o Options) normalize() Options {
	if o.Method == "" {
		o.Method = "GET"
	}
	if o.ConnectTimeout < 0 {
		callerBug("connect_timeout must be >= 0, got %v", o.ConnectTimeout)
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = 8_000_000
	}
	if o.MaxBytes < 0 {
		callerBug("max_bytes must be positive, got %d", o.MaxBytes)
	}
	return o
}
