package httpclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponseChunkedBody(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n0\r\n\r\n"
	resp, err := parseResponse([]byte(raw), "http://example.test/")
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)
	require.Equal(t, "abc", string(resp.Body))
}

func TestParseResponseVerbatimBody(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	resp, err := parseResponse([]byte(raw), "http://example.test/")
	require.NoError(t, err)
	require.Equal(t, "hello", string(resp.Body))
}

func TestParseResponseStatusFailure(t *testing.T) {
	raw := "HTTP/1.1 404 Not Found\r\n\r\nnope"
	_, err := parseResponse([]byte(raw), "http://example.test/")
	require.Error(t, err)
	var sf *StatusFailure
	require.ErrorAs(t, err, &sf)
	require.Equal(t, 404, sf.Status)
}

func TestParseResponseMissingSeparatorIsProtocolFailure(t *testing.T) {
	_, err := parseResponse([]byte("HTTP/1.1 200 OK\r\nno-body-separator"), "http://example.test/")
	require.Error(t, err)
	require.IsType(t, &ProtocolFailure{}, err)
}

func TestParseResponseMissingStatusLineIsProtocolFailure(t *testing.T) {
	_, err := parseResponse([]byte("not-a-status-line\r\n\r\nbody"), "http://example.test/")
	require.Error(t, err)
	require.IsType(t, &ProtocolFailure{}, err)
}
