package httpclient

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

var statusLineRe = regexp.MustCompile(`(?i)HTTP/1\.[01]\s+(\d{3})`)

// Response is the decoded result of a Fetch.
type Response struct {
	Status int
	Header string
	Body   []byte
}

// parseResponse splits raw into its header block and body, decodes a
// chunked body, and requires a well-formed status line, raising a
// ProtocolFailure rather than silently treating an absent or malformed
// one as "no status known" — see DESIGN.md.
func parseResponse(raw []byte, url string) (*Response, error) {
	sep := bytes.Index(raw, []byte("\r\n\r\n"))
	if sep < 0 {
		return nil, &ProtocolFailure{Reason: "missing header/body separator"}
	}
	head := string(raw[:sep])
	body := raw[sep+4:]

	m := statusLineRe.FindStringSubmatch(head)
	if m == nil {
		return nil, &ProtocolFailure{Reason: "missing or malformed status line"}
	}
	status, _ := strconv.Atoi(m[1])

	if strings.Contains(strings.ToLower(head), "transfer-encoding: chunked") {
		decoded, err := decodeChunked(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	if status >= 400 {
		return nil, &StatusFailure{Status: status, URL: url}
	}

	return &Response{Status: status, Header: head, Body: body}, nil
}
