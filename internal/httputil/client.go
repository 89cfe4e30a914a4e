package httputil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// Doer is the request-level seam between API clients and the transport.
// *http.Client satisfies it directly; tests hand in a ScriptedClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ScriptedClient replays a fixed sequence of responses while recording
// every request it receives. Once the script runs out, further requests
// get an empty 200 so incidental calls never fail a test.
type ScriptedClient struct {
	mu       sync.Mutex
	script   []scriptedStep
	next     int
	requests []*http.Request
}

type scriptedStep struct {
	status int
	body   string
	err    error
}

// NewScriptedClient creates an empty script.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{}
}

// Respond appends a canned status/body pair to the script.
func (c *ScriptedClient) Respond(status int, body string) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, scriptedStep{status: status, body: body})
	return c
}

// Fail appends a transport-level error to the script.
func (c *ScriptedClient) Fail(err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, scriptedStep{err: err})
	return c
}

// Do records req and plays the next scripted step.
func (c *ScriptedClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	if c.next >= len(c.script) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	step := c.script[c.next]
	c.next++

	if step.err != nil {
		return nil, step.err
	}
	return &http.Response{
		StatusCode: step.status,
		Body:       io.NopCloser(strings.NewReader(step.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Request returns the nth recorded request, or nil when out of range.
func (c *ScriptedClient) Request(n int) *http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n >= len(c.requests) {
		return nil
	}
	return c.requests[n]
}

// RequestCount reports how many requests the script has absorbed.
func (c *ScriptedClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
