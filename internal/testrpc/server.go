/*
Package testrpc provides a fake NEAR JSON-RPC node for tests. Handlers are
registered per method (and per query request type), every request is recorded
and can be inspected afterwards.
*/
package testrpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
)

// Handler processes request params returning either the result or an error.
type Handler func(params json.RawMessage) (any, *nearrpc.Error)

// Request is a recorded request.
type Request struct {
	Method  string
	Params  json.RawMessage
	Headers http.Header
}

// Server is an httptest.Server speaking NEAR JSON-RPC.
type Server struct {
	*httptest.Server

	t        testing.TB
	lock     sync.Mutex
	handlers map[string]Handler
	queries  map[string]Handler
	requests []Request
}

// New starts a Server stopped automatically at the end of the test.
func New(t testing.TB) *Server {
	s := &Server{
		t:        t,
		handlers: make(map[string]Handler),
		queries:  make(map[string]Handler),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.Close)
	return s
}

// Handle sets the handler for the method.
func (s *Server) Handle(method string, h Handler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handlers[method] = h
}

// HandleQuery sets the handler for the query request type.
func (s *Server) HandleQuery(requestType string, h Handler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queries[requestType] = h
}

// Result returns a Handler always responding with res.
func Result(res any) Handler {
	return func(json.RawMessage) (any, *nearrpc.Error) {
		return res, nil
	}
}

// Fail returns a Handler always responding with err.
func Fail(err *nearrpc.Error) Handler {
	return func(json.RawMessage) (any, *nearrpc.Error) {
		return nil, err
	}
}

// Requests returns recorded requests of the method (all requests if method is
// empty).
func (s *Server) Requests(method string) []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	var res []Request
	for _, r := range s.requests {
		if method == "" || r.Method == method {
			res = append(res, r)
		}
	}
	return res
}

// Count returns the number of method requests received. For query requests
// method can be a query request type.
func (s *Server) Count(method string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	var n int
	for _, r := range s.requests {
		if r.Method == method {
			n++
			continue
		}
		if r.Method == nearrpc.MethodQuery && queryType(r.Params) == method {
			n++
		}
	}
	return n
}

func queryType(params json.RawMessage) string {
	var p struct {
		RequestType string `json:"request_type"`
	}
	_ = json.Unmarshal(params, &p)
	return p.RequestType
}

func (s *Server) serveHTTP(w http.ResponseWriter, req *http.Request) {
	var in struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	s.requests = append(s.requests, Request{Method: in.Method, Params: in.Params, Headers: req.Header.Clone()})
	h, ok := s.handlers[in.Method]
	if in.Method == nearrpc.MethodQuery {
		if qh, found := s.queries[queryType(in.Params)]; found {
			h, ok = qh, true
		}
	}
	s.lock.Unlock()

	var resp = map[string]any{
		"jsonrpc": nearrpc.JSONRPCVersion,
		"id":      in.ID,
	}
	if !ok {
		resp["error"] = nearrpc.NewError(-32601, "Method not found")
	} else {
		res, rpcErr := h(in.Params)
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = res
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.t.Errorf("failed to write response: %v", err)
	}
}
