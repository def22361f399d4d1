package walker

import (
	"maps"
	"sync"
)

// Well-known response keys.
const (
	KeyHookErrors = "hook_errors"
	KeyStatus     = "status"
	KeyMessage    = "message"
	KeyReport     = "report"
)

// Response is the document a walker accumulates while it runs. It is the
// single channel through which a traversal reports success and failure. It is
// safe for concurrent use.
type Response struct {
	mu  sync.Mutex
	doc map[string]any
}

func newResponse() *Response {
	return &Response{doc: map[string]any{}}
}

// Set stores v under key.
func (r *Response) Set(key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc[key] = v
}

// Get returns the value stored under key.
func (r *Response) Get(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.doc[key]
	return v, ok
}

// Append adds v to the list stored under key, creating it if needed.
func (r *Response) Append(key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, _ := r.doc[key].([]any)
	r.doc[key] = append(list, v)
}

// Report appends v to the "report" list.
func (r *Response) Report(v any) {
	r.Append(KeyReport, v)
}

// Errors returns the recorded hook errors.
func (r *Response) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, _ := r.doc[KeyHookErrors].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Status returns the response status, or 0 if none was set.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch s := r.doc[KeyStatus].(type) {
	case int:
		return s
	case int64:
		return int(s)
	case float64:
		return int(s)
	}
	return 0
}

// Message returns the loop fault message, if any.
func (r *Response) Message() string {
	v, _ := r.Get(KeyMessage)
	s, _ := v.(string)
	return s
}

// Snapshot returns a copy of the document.
func (r *Response) Snapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := maps.Clone(r.doc)
	for k, v := range out {
		if list, ok := v.([]any); ok {
			out[k] = append([]any(nil), list...)
		}
	}
	return out
}

func (r *Response) setDefault(key string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doc[key]; !ok {
		r.doc[key] = v
	}
}
