// Package gatewaytest runs a scripted fake Zaguan gateway on a loopback
// listener for client tests.
package gatewaytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// Reply is one scripted response. Exactly one of JSON, Body or Events is
// normally set; an empty Reply answers 200 with no body.
type Reply struct {
	Status  int
	Headers map[string]string

	// JSON is encoded as the response body.
	JSON any

	// Body is written verbatim.
	Body []byte

	// Events are written as an event stream, one line each. Include the
	// "data: [DONE]" line explicitly when the stream should terminate.
	Events []string

	// Delay holds the response back.
	Delay time.Duration

	// Handler, when set, answers the request instead of the fields above.
	// It sees a net/http view of the request and its output is buffered.
	Handler http.HandlerFunc
}

// JSON returns a 200 reply with v as the body.
func JSON(v any) Reply {
	return Reply{Status: http.StatusOK, JSON: v}
}

// Error returns a reply in the gateway error envelope.
func Error(status int, errType, message string, extra map[string]any) Reply {
	fields := map[string]any{"message": message}
	if errType != "" {
		fields["type"] = errType
	}
	for k, v := range extra {
		fields[k] = v
	}
	return Reply{Status: status, JSON: map[string]any{"error": fields}}
}

// Status returns a reply with only a status code.
func Status(code int) Reply {
	return Reply{Status: code}
}

// Events returns a 200 event-stream reply with one data line per payload
// followed by the [DONE] sentinel.
func Events(payloads ...string) Reply {
	lines := make([]string, 0, len(payloads)+1)
	for _, p := range payloads {
		lines = append(lines, "data: "+p, "")
	}
	lines = append(lines, "data: [DONE]", "")
	return Reply{Status: http.StatusOK, Events: lines}
}

// Request is a request received by the server.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Decode unmarshals the request body into v.
func (r Request) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Multipart parses a multipart/form-data body.
func (r Request) Multipart() (*multipart.Form, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parsing content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("not a multipart body: %s", mediaType)
	}
	return multipart.NewReader(bytes.NewReader(r.Body), params["boundary"]).ReadForm(32 << 20)
}

// Server is a fake gateway. Replies are scripted per method and path; each
// request consumes the next reply for its route and the last reply repeats.
// Unscripted routes answer 404.
type Server struct {
	// URL is the base URL of the server, without a trailing slash.
	URL string

	app      *fiber.App
	listener net.Listener

	mu       sync.Mutex
	routes   map[string][]Reply
	requests []Request
}

// New starts a Server on 127.0.0.1 with an ephemeral port.
func New() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		// Recorded bodies must be the bytes the client sent, not a form
		// re-encoded by fasthttp.
		DisablePreParseMultipartForm: true,
	})

	s := &Server{
		URL:      "http://" + ln.Addr().String(),
		app:      app,
		listener: ln,
		routes:   make(map[string][]Reply),
	}
	app.All("/*", s.handle)

	go func() {
		_ = app.Listener(ln)
	}()

	return s, nil
}

// Handle scripts the replies for method and path.
func (s *Server) Handle(method, path string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes[routeKey(method, path)] = replies
}

// Requests returns every request received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent request, or the zero Request.
func (s *Server) Last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// Calls counts the requests received for method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset drops all scripted replies and recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = make(map[string][]Reply)
	s.requests = nil
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

func (s *Server) handle(c *fiber.Ctx) error {
	req := record(c)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	reply, ok := s.next(req.Method, req.Path)
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{
				"message": fmt.Sprintf("no reply scripted for %s %s", req.Method, req.Path),
				"type":    "not_found",
			},
		})
	}

	if reply.Delay > 0 {
		time.Sleep(reply.Delay)
	}

	if reply.Handler != nil {
		return adaptor.HTTPHandlerFunc(reply.Handler)(c)
	}
	return write(c, reply)
}

// next pops the next reply for a route. Must be called with mu held.
func (s *Server) next(method, path string) (Reply, bool) {
	key := routeKey(method, path)
	replies := s.routes[key]
	if len(replies) == 0 {
		return Reply{}, false
	}

	reply := replies[0]
	if len(replies) > 1 {
		s.routes[key] = replies[1:]
	}
	return reply, true
}

func record(c *fiber.Ctx) Request {
	header := make(http.Header)
	for k, vs := range c.GetReqHeaders() {
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	body := append([]byte(nil), c.Request().Body()...)

	return Request{
		Method: c.Method(),
		Path:   c.Path(),
		Query:  string(c.Request().URI().QueryString()),
		Header: header,
		Body:   body,
	}
}

func write(c *fiber.Ctx, reply Reply) error {
	status := reply.Status
	if status == 0 {
		status = fiber.StatusOK
	}
	c.Status(status)

	for k, v := range reply.Headers {
		c.Set(k, v)
	}

	switch {
	case reply.Events != nil:
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")

		pr, pw := io.Pipe()
		go func() {
			for _, line := range reply.Events {
				if _, err := io.WriteString(pw, line+"\n"); err != nil {
					return
				}
			}
			pw.Close()
		}()
		c.Context().Response.SetBodyStream(pr, -1)
		return nil

	case reply.JSON != nil:
		return c.JSON(reply.JSON)

	case reply.Body != nil:
		return c.Send(reply.Body)

	default:
		return nil
	}
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
