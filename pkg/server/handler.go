package server

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
	"github.com/vnykmshr/hellopool/pkg/metrics"
)

// Request lines and resources understood by Handler.
const (
	IndexRequestLine = "GET / HTTP/1.1"

	StatusOK       = "HTTP/1.1 200 OK"
	StatusNotFound = "HTTP/1.1 404 NOT FOUND"

	IndexResource    = "hello.html"
	NotFoundResource = "404.html"
)

//go:embed static/hello.html static/404.html
var embedded embed.FS

// DefaultResources returns the built-in hello.html and 404.html.
func DefaultResources() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}

// Response is the status line and body returned for one request line.
type Response struct {
	Status string
	Body   []byte
}

// Code returns the numeric status code from the status line.
func (r Response) Code() string {
	parts := strings.SplitN(r.Status, " ", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// WriteTo writes the response as "{status}\r\nContent-Length: {n}\r\n\r\n{body}".
func (r Response) WriteTo(w io.Writer) (int64, error) {
	header := r.Status + "\r\nContent-Length: " + strconv.Itoa(len(r.Body)) + "\r\n\r\n"
	n, err := io.WriteString(w, header)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(r.Body)
	return int64(n + m), err
}

// Handler answers a single request line per connection.
type Handler struct {
	// Root holds hello.html and 404.html. If nil, DefaultResources is used.
	Root fs.FS

	// ReadTimeout bounds how long ServeConn waits for the request line.
	// Zero means no deadline.
	ReadTimeout time.Duration

	// Logger receives per-connection failures. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics, when set, records responses and connection failures under Name.
	Metrics *metrics.Registry
	Name    string
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) resources() fs.FS {
	if h.Root == nil {
		return DefaultResources()
	}
	return h.Root
}

// Respond maps a request line to a response.
func (h *Handler) Respond(requestLine string) (Response, error) {
	status, resource := StatusNotFound, NotFoundResource
	if requestLine == IndexRequestLine {
		status, resource = StatusOK, IndexResource
	}

	body, err := fs.ReadFile(h.resources(), resource)
	if err != nil {
		return Response{}, hperrors.NewOperationError("server", "ReadResource", err).WithContext(resource)
	}

	return Response{Status: status, Body: body}, nil
}

// ServeConn reads one request line from conn, writes the response and closes conn.
// Failures are logged and recorded; they never propagate to the caller.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()

	if err := h.serve(conn); err != nil {
		h.logger().Warn("connection failed", "remote", remoteAddr(conn), "error", err)
	}
}

func (h *Handler) serve(conn net.Conn) error {
	if h.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(h.ReadTimeout)); err != nil {
			h.recordError("read")
			return hperrors.NewOperationError("server", "ReadRequest", err)
		}
	}

	requestLine, err := ReadRequestLine(bufio.NewReader(conn))
	if err != nil {
		h.recordError("read")
		return hperrors.NewOperationError("server", "ReadRequest", err)
	}

	resp, err := h.Respond(requestLine)
	if err != nil {
		h.recordError("resource")
		return err
	}

	if _, err := resp.WriteTo(conn); err != nil {
		h.recordError("write")
		return hperrors.NewOperationError("server", "WriteResponse", err).WithContext(resp.Status)
	}

	if h.Metrics != nil {
		h.Metrics.Responses.WithLabelValues(h.Name, resp.Code()).Inc()
	}
	return nil
}

func (h *Handler) recordError(stage string) {
	if h.Metrics != nil {
		h.Metrics.ConnectionErrors.WithLabelValues(h.Name, stage).Inc()
	}
}

// ReadRequestLine returns the first line from r without its line ending.
// A final line without a newline is accepted; an empty stream is io.ErrUnexpectedEOF.
func ReadRequestLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", io.ErrUnexpectedEOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return fmt.Sprintf("%T", conn)
}
