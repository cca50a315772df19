package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo wraps a Fetcher so that each URI is fetched at most once, even when
// requested concurrently.
type Memo struct {
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.Mutex
	results map[string]Outcome
	calls   map[string]int
}

func NewMemo(f Fetcher) *Memo {
	return &Memo{
		fetcher: f,
		results: make(map[string]Outcome),
		calls:   make(map[string]int),
	}
}

func (m *Memo) Fetch(ctx context.Context, uri string) Outcome {
	if o, ok := m.lookup(uri); ok {
		return o
	}
	v, _, _ := m.group.Do(uri, func() (any, error) {
		if o, ok := m.lookup(uri); ok {
			return o, nil
		}
		o := m.fetcher.Fetch(ctx, uri)

		m.mu.Lock()
		m.results[uri] = o
		m.calls[uri]++
		m.mu.Unlock()
		return o, nil
	})
	return v.(Outcome)
}

// Calls returns how many times the underlying fetcher was invoked for uri.
func (m *Memo) Calls(uri string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[uri]
}

func (m *Memo) lookup(uri string) (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.results[uri]
	return o, ok
}
