package hellostatic

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRequestLine tests request line parsing
func TestParseRequestLine(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		expect *RequestLine
		root   bool
	}{
		{
			name:   "root",
			raw:    "GET / HTTP/1.1\r\n",
			expect: &RequestLine{Method: "GET", Target: "/", Proto: "HTTP/1.1", Path: "/"},
			root:   true,
		},
		{
			name:   "query is ignored",
			raw:    "GET /?x=1 HTTP/1.1\r\nHost: x\r\n\r\n",
			expect: &RequestLine{Method: "GET", Target: "/?x=1", Proto: "HTTP/1.1", Path: "/"},
			root:   true,
		},
		{
			name:   "absolute form without path",
			raw:    "GET http://example.com HTTP/1.0\n",
			expect: &RequestLine{Method: "GET", Target: "http://example.com", Proto: "HTTP/1.0", Path: "/"},
			root:   true,
		},
		{
			name:   "other path",
			raw:    "GET /index.html HTTP/1.1\r\n",
			expect: &RequestLine{Method: "GET", Target: "/index.html", Proto: "HTTP/1.1", Path: "/index.html"},
		},
		{
			name:   "other method",
			raw:    "DELETE / HTTP/1.1\r\n",
			expect: &RequestLine{Method: "DELETE", Target: "/", Proto: "HTTP/1.1", Path: "/"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rl, err := ParseRequestLine([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.expect, rl)
			assert.Equal(t, tc.root, rl.IsRoot())
		})
	}
}

// TestParseRequestLine_Errors tests malformed request lines are rejected
func TestParseRequestLine_Errors(t *testing.T) {
	for _, raw := range []string{
		"GET / HTTP/1.1\r\n\r\n"[:10],
		"GET /\r\n",
		"GET / HTTP/1.1 extra\r\n",
		"G(T / HTTP/1.1\r\n",
		" / HTTP/1.1\r\n",
		"GET / HTTP/2.0\r\n",
		"GET / FTP/1.0\r\n",
		"GET relative HTTP/1.1\r\n",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRequestLine([]byte(raw))
			assert.Error(t, err)
		})
	}
	_, err := ParseRequestLine(nil)
	assert.ErrorIs(t, err, ErrRequestTooShort)
}

// TestReadHead_StopsAtEndOfHead tests bytes after the blank line are left unread
func TestReadHead_StopsAtEndOfHead(t *testing.T) {
	r := strings.NewReader("GET / HTTP/1.1\r\nHost: x\r\n\r\nBODY")
	head, err := readHead(iotest.OneByteReader(r), 1024)
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n", string(head))
	assert.Equal(t, 4, r.Len())
}

// TestReadHead_Limit tests the read stops at the limit
func TestReadHead_Limit(t *testing.T) {
	r := strings.NewReader(strings.Repeat("x", 2048))
	head, err := readHead(r, 1000)
	require.NoError(t, err)
	assert.Len(t, head, 1000)
	assert.Equal(t, 1048, r.Len())
}

// TestReadHead_EOF tests a short request without a blank line
func TestReadHead_EOF(t *testing.T) {
	head, err := readHead(iotest.HalfReader(strings.NewReader("GET / HTTP/1.1\r\n")), 1024)
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r\n", string(head))
}

// TestReadLegacy tests the fixed buffer keeps its zero padding
func TestReadLegacy(t *testing.T) {
	buf, n, err := readLegacy(strings.NewReader("GET /"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "GET /", string(buf[:5]))
	assert.Equal(t, make([]byte, LegacyBufferSize-5), buf[5:])

	buf, n, err = readLegacy(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, [LegacyBufferSize]byte{}, buf)
}

// TestLossy tests invalid utf-8 is replaced and zero bytes are kept
func TestLossy(t *testing.T) {
	testCases := []struct {
		name   string
		raw    []byte
		expect string
	}{
		{"plain", []byte("plain"), "plain"},
		{"zero padding", []byte{'a', 0, 0}, "a\x00\x00"},
		{"single invalid byte", []byte{'a', 0xff, 'b', 0}, "a\ufffdb\x00"},
		{"one per invalid byte", []byte{'a', 0xff, 0xfe, 'b'}, "a\ufffd\ufffdb"},
		{"truncated sequence is one", []byte{0xe2, 0x82, 'x'}, "\ufffdx"},
		{"truncated at end", []byte{'x', 0xf0, 0x9f, 0x98}, "x\ufffd"},
		{"surrogate is three", []byte{0xed, 0xa0, 0x80}, "\ufffd\ufffd\ufffd"},
		{"overlong lead", []byte{0xc0, 0xaf}, "\ufffd\ufffd"},
		{"valid multibyte", []byte("é€😀"), "é€😀"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, lossy(tc.raw))
		})
	}
}
