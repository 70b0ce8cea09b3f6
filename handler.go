package hellostatic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"
	"unicode/utf8"
)

var ErrInvalidContent = errors.New("content is not valid utf-8")

type Handler struct {
	fs           fs.FS
	mode         Mode
	readLimit    int
	index        string
	notFound     string
	writeTimeout time.Duration
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

func NewHandler(fsys fs.FS, config *Config) *Handler {
	slog.Info("handler created", "root", fsys, "mode", config.Mode)
	return &Handler{
		fs:           fsys,
		mode:         config.Mode,
		readLimit:    config.ReadLimit,
		index:        config.IndexFile,
		notFound:     config.NotFoundFile,
		writeTimeout: config.WriteTimeout,
	}
}

type route struct {
	status   string
	filename string
}

func (h *Handler) classifyLegacy(buf []byte) route {
	if bytes.HasPrefix(buf, legacyRequestLine) {
		return route{status: StatusLineOK, filename: h.index}
	}
	return route{status: StatusLineNotFound, filename: h.notFound}
}

func (h *Handler) classify(raw []byte, log *slog.Logger) (route, *RequestLine) {
	rl, err := ParseRequestLine(raw)
	if err != nil {
		log.Debug("request line rejected", "error", err)
		return route{status: StatusLineNotFound, filename: h.notFound}, nil
	}
	if rl.IsRoot() {
		return route{status: StatusLineOK, filename: h.index}, rl
	}
	return route{status: StatusLineNotFound, filename: h.notFound}, rl
}

func (h *Handler) load(rt route) (*Response, error) {
	body, err := fs.ReadFile(h.fs, rt.filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rt.filename, err)
	}
	if h.mode == ModeLegacy && !utf8.Valid(body) {
		return nil, fmt.Errorf("read %s: %w", rt.filename, ErrInvalidContent)
	}
	return &Response{StatusLine: rt.status, Body: body}, nil
}

// ServeConn handles one request on conn. Any error leaves the response
// unwritten or partially written; the caller closes the connection.
func (h *Handler) ServeConn(conn io.ReadWriter, log *slog.Logger) error {
	st := time.Now()
	var (
		raw []byte
		rt  route
		rl  *RequestLine
	)
	if h.mode == ModeLegacy {
		buf, _, err := readLegacy(conn)
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		raw = buf[:]
		rt = h.classifyLegacy(raw)
	} else {
		head, err := readHead(conn, h.readLimit)
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
		raw = head
		rt, rl = h.classify(raw, log)
	}
	res, err := h.load(rt)
	if err != nil {
		return err
	}
	// write timeout counts from the end of the read
	if wd, ok := conn.(writeDeadliner); ok && h.writeTimeout > 0 {
		if err := wd.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
			log.Warn("set write deadline", "error", err)
		}
	}
	n, err := res.WriteTo(conn)
	if err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	log.Info("request", "raw", lossy(raw))
	attrs := []any{"status", rt.status, "file", rt.filename, "bytes", n, "elapsed_ns", time.Since(st)}
	if rl != nil {
		attrs = append(attrs, "method", rl.Method, "target", rl.Target, "proto", rl.Proto)
	}
	log.Info("accesslog", attrs...)
	return nil
}
