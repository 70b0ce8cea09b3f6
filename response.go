package hellostatic

import (
	"bufio"
	"io"
	"strconv"
)

const (
	StatusLineOK       = "HTTP/1.1 200 OK"
	StatusLineNotFound = "HTTP/1.1 404 NOT FOUND"
)

// Response is a status line and a body. Content-Length is the only header
// ever sent.
type Response struct {
	StatusLine string
	Body       []byte
}

func (r *Response) Bytes() []byte {
	out := make([]byte, 0, len(r.StatusLine)+len(r.Body)+32)
	out = append(out, r.StatusLine...)
	out = append(out, "\r\nContent-Length: "...)
	out = strconv.AppendInt(out, int64(len(r.Body)), 10)
	out = append(out, "\r\n\r\n"...)
	return append(out, r.Body...)
}

// WriteTo writes the response and flushes before returning.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	n, err := bw.Write(r.Bytes())
	if err != nil {
		return int64(n), err
	}
	if err := bw.Flush(); err != nil {
		return int64(n), err
	}
	return int64(n), nil
}
