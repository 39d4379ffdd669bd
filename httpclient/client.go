package httpclient

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/loomrt/loom"
)

// connectLimit bounds the number of concurrent blocking connect calls
// any single process makes, so a demo issuing many fetches at once
// does not open unbounded sockets from the goroutines backing
// suspended coroutines. See DESIGN.md's connect-concurrency rationale.
var connectLimit = semaphore.NewWeighted(32)

// Fetch performs one request/response round trip: validates rawURL
// and opts, connects (blocking, via loom.Offload), writes the
// synthesized request, reads the response to EOF bounded by
// opts.MaxBytes, and parses it. http requests are driven through
// loom's non-blocking Write/ReadAll once connected; https requests
// stay inside a single Offload call end to end, since a *tls.Conn's
// encrypted record framing cannot be handed to loom's raw-fd watchers
// without decrypting past them.
func Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	tgt := parseTarget(rawURL)
	opts = opts.normalize()
	req := buildRequest(opts.Method, tgt, opts.Headers, opts.Body, opts.JSON)

	if tgt.scheme == "https" {
		return fetchTLS(ctx, tgt, req, opts, rawURL)
	}
	return fetchPlain(ctx, tgt, req, opts, rawURL)
}

// fetchPlain connects a raw TCP socket and drives the request/response
// through loom's reactor: loom.Write/loom.ReadAll operate directly on
// the socket's file descriptor.
func fetchPlain(ctx context.Context, tgt *target, req []byte, opts Options, rawURL string) (*Response, error) {
	stream, closeFn, err := connectPlain(ctx, tgt, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	task := loom.MustTaskFromContext(ctx)
	if err := task.Write(stream, req); err != nil {
		return nil, err
	}
	body, err := task.ReadAll(stream, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	return parseResponse(body, rawURL)
}

func connectPlain(ctx context.Context, tgt *target, opts Options) (loom.Stream, func(), error) {
	if err := connectLimit.Acquire(ctx, 1); err != nil {
		return 0, nil, err
	}
	defer connectLimit.Release(1)

	timeout := time.Duration(opts.ConnectTimeout * float64(time.Second))
	addr := net.JoinHostPort(tgt.host, strconv.Itoa(tgt.port))

	result, err := loom.Offload(ctx, func() (any, error) {
		d := net.Dialer{Timeout: timeout}
		return d.Dial("tcp", addr)
	})
	if err != nil {
		return 0, nil, &ProtocolFailure{Reason: "connect failed: " + err.Error()}
	}

	conn := result.(net.Conn)
	fc, ok := conn.(interface{ File() (*os.File, error) })
	if !ok {
		_ = conn.Close()
		return 0, nil, &ProtocolFailure{Reason: "connection does not expose a file descriptor"}
	}
	f, err := fc.File()
	if err != nil {
		_ = conn.Close()
		return 0, nil, &ProtocolFailure{Reason: "fd extraction failed: " + err.Error()}
	}

	stream := loom.Stream(f.Fd())
	closeFn := func() {
		_ = f.Close()
		_ = conn.Close()
	}
	return stream, closeFn, nil
}

// fetchTLS dials, handshakes, writes the request, and reads the
// response to EOF (bounded by opts.MaxBytes) entirely inside one
// Offload call, since none of that can be driven by loom's
// non-blocking watchers once TLS record encryption is in the way.
func fetchTLS(ctx context.Context, tgt *target, req []byte, opts Options, rawURL string) (*Response, error) {
	if err := connectLimit.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer connectLimit.Release(1)

	timeout := time.Duration(opts.ConnectTimeout * float64(time.Second))
	addr := net.JoinHostPort(tgt.host, strconv.Itoa(tgt.port))
	maxBytes := opts.MaxBytes
	verify := opts.Verify

	result, err := loom.Offload(ctx, func() (any, error) {
		d := net.Dialer{Timeout: timeout}
		conn, err := tlsDial(d, addr, verify)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		if _, err := conn.Write(req); err != nil {
			return nil, &loom.IOFailure{Kind: loom.IOWriteFailed, Err: err}
		}

		buf := make([]byte, 0, 4096)
		chunk := make([]byte, loom.IOChunk)
		for {
			n, readErr := conn.Read(chunk)
			if n > 0 {
				buf = append(buf, chunk[:n]...)
				if len(buf) > maxBytes {
					return nil, &loom.IOFailure{Kind: loom.IOTooLarge}
				}
			}
			if readErr != nil {
				break
			}
		}
		return buf, nil
	})
	if err != nil {
		return nil, err
	}

	return parseResponse(result.([]byte), rawURL)
}

// tlsDial performs the blocking handshake with the caller's verify
// preference: verify true means verify the peer and its name,
// disallowing self-signed certificates; false is the inverse.
func tlsDial(d net.Dialer, addr string, verify bool) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: !verify,
	}
	return tls.DialWithDialer(&d, "tcp", addr, cfg)
}
