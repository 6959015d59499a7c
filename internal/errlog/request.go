package errlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps how much of a request body is kept for the log.
const maxBodyBytes = 64 << 10

var redacted = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
}

// Request is the request context attached to a record.
type Request struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string]string   `json:"headers"`
	Body    string              `json:"body,omitempty"`
	Params  map[string]string   `json:"params,omitempty"`
	Query   map[string][]string `json:"query,omitempty"`
	IP      string              `json:"ip"`
}

type requestKey struct{}

type captured struct {
	req  *http.Request
	body []byte

	mu     sync.Mutex
	logged []loggedErr
}

type loggedErr struct {
	err error
	id  string
}

func (c *captured) remember(err error, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logged = append(c.logged, loggedErr{err: err, id: id})
}

// idFor returns the id of an earlier record for err or an error it wraps.
func (c *captured) idFor(err error) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.logged {
		if errors.Is(err, l.err) {
			return l.id, true
		}
	}
	return "", false
}

func capturedFrom(ctx context.Context) *captured {
	c, _ := ctx.Value(requestKey{}).(*captured)
	return c
}

// Capture remembers r for any record logged under the returned request's
// context. Up to maxBodyBytes of the body are copied; the handler still
// reads the full body.
func Capture(r *http.Request) *http.Request {
	c := &captured{req: r}
	if r.Body != nil && r.Body != http.NoBody {
		head, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil {
			c.body = head
			r.Body = readCloser{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
		}
	}
	return r.WithContext(context.WithValue(r.Context(), requestKey{}, c))
}

type readCloser struct {
	io.Reader
	io.Closer
}

// requestFrom builds the Request for ctx. Route params are read from ctx
// itself, so they are present once chi has routed the request.
func requestFrom(ctx context.Context) *Request {
	c := capturedFrom(ctx)
	if c == nil {
		return nil
	}
	r := c.req

	headers := make(map[string]string, len(r.Header))
	for name, vals := range r.Header {
		if redacted[strings.ToLower(name)] {
			headers[name] = "[redacted]"
			continue
		}
		headers[name] = strings.Join(vals, ", ")
	}

	out := &Request{
		Method:  r.Method,
		URL:     r.URL.RequestURI(),
		Headers: headers,
		Body:    string(c.body),
		IP:      r.RemoteAddr,
	}
	if q := r.URL.Query(); len(q) > 0 {
		out.Query = q
	}
	if rctx := chi.RouteContext(ctx); rctx != nil && len(rctx.URLParams.Keys) > 0 {
		out.Params = make(map[string]string, len(rctx.URLParams.Keys))
		for i, k := range rctx.URLParams.Keys {
			out.Params[k] = rctx.URLParams.Values[i]
		}
	}
	return out
}
