package httpclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeChunkedSimple(t *testing.T) {
	out, err := decodeChunked([]byte("3\r\nabc\r\n0\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))
}

func TestDecodeChunkedMultipleChunksAndExtension(t *testing.T) {
	out, err := decodeChunked([]byte("4;ignored-ext\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Wikipedia", string(out))
}

func TestDecodeChunkedTrailerConsumed(t *testing.T) {
	out, err := decodeChunked([]byte("3\r\nabc\r\n0\r\nX-Trailer: 1\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))
}

func TestDecodeChunkedMissingCRLFIsMalformed(t *testing.T) {
	_, err := decodeChunked([]byte("3\r\nabcX0\r\n\r\n"))
	require.Error(t, err)
	require.IsType(t, &ProtocolFailure{}, err)
}

func TestDecodeChunkedInvalidSizeIsMalformed(t *testing.T) {
	_, err := decodeChunked([]byte("zz\r\nabc\r\n0\r\n\r\n"))
	require.Error(t, err)
	require.IsType(t, &ProtocolFailure{}, err)
}

func TestDecodeChunkedTrailingBytesAfterTerminatorIsMalformed(t *testing.T) {
	_, err := decodeChunked([]byte("0\r\n\r\ngarbage"))
	require.Error(t, err)
}
