package httpclient

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerCaser = cases.Title(language.Und)

// canonicalHeaderName title-cases each hyphen-separated segment of a
// header name ("content-length" -> "Content-Length").
func canonicalHeaderName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		parts[i] = headerCaser.String(p)
	}
	return strings.Join(parts, "-")
}

func hasHeaderFold(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// buildRequest synthesizes the request-line and header block:
// "{METHOD} {path} HTTP/1.1\r\n", headers, a blank line, then the
// body. Host and Connection: close are always set; a
// Content-Length is synthesized for a non-empty body unless the
// caller already supplied one; Accept: application/json is added for
// JSON requests that did not specify their own Accept.
func buildRequest(method string, tgt *target, headers map[string]string, body string, isJSON bool) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, tgt.path)
	fmt.Fprintf(&b, "%s: %s\r\n", canonicalHeaderName("host"), tgt.host)

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", canonicalHeaderName(name), headers[name])
	}

	fmt.Fprintf(&b, "%s: close\r\n", canonicalHeaderName("connection"))

	if len(body) > 0 && !hasHeaderFold(headers, "content-length") {
		fmt.Fprintf(&b, "%s: %s\r\n", canonicalHeaderName("content-length"), strconv.Itoa(len(body)))
	}
	if isJSON && !hasHeaderFold(headers, "accept") {
		fmt.Fprintf(&b, "%s: application/json\r\n", canonicalHeaderName("accept"))
	}

	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
