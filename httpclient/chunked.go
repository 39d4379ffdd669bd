package httpclient

import (
	"bytes"
	"strconv"
	"strings"
)

// decodeChunked is the left-inverse of a well-formed chunked encoder:
// repeated "<hex-size>[;ext]\r\n<data>\r\n" chunks terminated by a
// zero-size chunk and a trailer section ending in a blank line.
func decodeChunked(body []byte) ([]byte, error) {
	var out bytes.Buffer
	rest := body

	for {
		line, tail, ok := readLine(rest)
		if !ok {
			return nil, &ProtocolFailure{Reason: "malformed chunk: missing size line"}
		}
		rest = tail

		sizeField := line
		if i := strings.IndexByte(sizeField, ';'); i >= 0 {
			sizeField = sizeField[:i]
		}
		sizeField = strings.TrimSpace(sizeField)

		size, err := strconv.ParseUint(sizeField, 16, 64)
		if err != nil {
			return nil, &ProtocolFailure{Reason: "malformed chunk: invalid size " + strconv.Quote(sizeField)}
		}

		if size == 0 {
			if err := decodeTrailer(rest); err != nil {
				return nil, err
			}
			return out.Bytes(), nil
		}

		if uint64(len(rest)) < size+2 {
			return nil, &ProtocolFailure{Reason: "malformed chunk: insufficient data"}
		}
		data := rest[:size]
		if rest[size] != '\r' || rest[size+1] != '\n' {
			return nil, &ProtocolFailure{Reason: "malformed chunk: missing trailing CRLF"}
		}
		out.Write(data)
		rest = rest[size+2:]
	}
}

// decodeTrailer consumes trailer lines (ignored) until a blank line.
// Any bytes left in rest after that blank line are a malformed
// trailer.
func decodeTrailer(rest []byte) error {
	for {
		line, tail, ok := readLine(rest)
		if !ok {
			return &ProtocolFailure{Reason: "malformed trailer: missing terminating blank line"}
		}
		rest = tail
		if line == "" {
			if len(rest) != 0 {
				return &ProtocolFailure{Reason: "malformed trailer: trailing bytes after terminator"}
			}
			return nil
		}
	}
}

func readLine(b []byte) (line string, rest []byte, ok bool) {
	i := bytes.Index(b, []byte("\r\n"))
	if i < 0 {
		return "", nil, false
	}
	return string(b[:i]), b[i+2:], true
}
