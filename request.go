package hellostatic

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
)

// LegacyBufferSize is the fixed request buffer used by the legacy mode.
const LegacyBufferSize = 1024

// legacyRequestLine is the only request the legacy mode recognizes as root.
var legacyRequestLine = []byte("GET / HTTP/1.1\r\n")

var ErrRequestTooShort = errors.New("request line incomplete")

// RequestLine is the first line of an HTTP request.
type RequestLine struct {
	Method string
	Target string
	Proto  string
	Path   string
}

// readLegacy does a single read into a zeroed fixed-size buffer. Zero bytes
// followed by EOF is not an error, the buffer just stays zero.
func readLegacy(r io.Reader) ([LegacyBufferSize]byte, int, error) {
	var buf [LegacyBufferSize]byte
	n, err := r.Read(buf[:])
	if err != nil && !errors.Is(err, io.EOF) {
		return buf, n, err
	}
	return buf, n, nil
}

// readHead reads until the end of the request head, EOF or limit bytes.
func readHead(r io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, 0, min(limit, 512))
	chunk := make([]byte, min(limit, 512))
	for len(buf) < limit {
		n, err := r.Read(chunk[:min(len(chunk), limit-len(buf))])
		buf = append(buf, chunk[:n]...)
		if headComplete(buf) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() && bytes.IndexByte(buf, '\n') >= 0 {
				return buf, nil
			}
			return buf, err
		}
	}
	return buf, nil
}

func headComplete(buf []byte) bool {
	return bytes.Contains(buf, []byte("\r\n\r\n")) || bytes.Contains(buf, []byte("\n\n"))
}

// ParseRequestLine parses the first line of raw. Both CRLF and bare LF
// terminators are accepted.
func ParseRequestLine(raw []byte) (*RequestLine, error) {
	idx := bytes.IndexByte(raw, '\n')
	if idx < 0 {
		return nil, ErrRequestTooShort
	}
	line := strings.TrimSuffix(string(raw[:idx]), "\r")
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, errors.New("malformed request line: " + line)
	}
	method, target, proto := parts[0], parts[1], parts[2]
	if !isToken(method) {
		return nil, errors.New("invalid method: " + method)
	}
	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok || major != 1 || minor > 1 {
		return nil, errors.New("unsupported version: " + proto)
	}
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" && u.IsAbs() {
		path = "/"
	}
	return &RequestLine{Method: method, Target: target, Proto: proto, Path: path}, nil
}

// IsRoot reports whether the request asks for the index page.
func (rl *RequestLine) IsRoot() bool {
	return rl.Method == http.MethodGet && rl.Path == "/"
}

func isToken(raw string) bool {
	if len(raw) == 0 {
		return false
	}
	for _, b := range []byte(raw) {
		if !httpguts.IsTokenRune(rune(b)) {
			return false
		}
	}
	return true
}

// lossy renders request bytes for logging. Each maximal invalid UTF-8
// subsequence becomes one U+FFFD.
func lossy(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			raw = raw[invalidPrefix(raw):]
			continue
		}
		sb.Write(raw[:size])
		raw = raw[size:]
	}
	return sb.String()
}

// invalidPrefix returns the length of the broken sequence at the start of p:
// the lead byte plus any continuation bytes that were still acceptable.
func invalidPrefix(p []byte) int {
	var need int
	lo, hi := byte(0x80), byte(0xbf)
	switch b := p[0]; {
	case b >= 0xc2 && b <= 0xdf:
		need = 1
	case b == 0xe0:
		need, lo = 2, 0xa0
	case b == 0xed:
		need, hi = 2, 0x9f
	case b >= 0xe1 && b <= 0xef:
		need = 2
	case b == 0xf0:
		need, lo = 3, 0x90
	case b == 0xf4:
		need, hi = 3, 0x8f
	case b >= 0xf1 && b <= 0xf3:
		need = 3
	default:
		return 1
	}
	n := 1
	for ; n <= need && n < len(p); n++ {
		if p[n] < lo || p[n] > hi {
			break
		}
		lo, hi = 0x80, 0xbf
	}
	return n
}
