package testdoubles

import (
	"slices"
	"sync"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
)

// Journal records the order in which interceptors and targets run.
type Journal struct {
	entries []string
	mu      sync.Mutex
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Record(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return slices.Clone(j.entries)
}

func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = j.entries[:0]
}

// InterceptorSpy records its name in a Journal and proceeds.
type InterceptorSpy struct {
	name    string
	journal *Journal
	methods []string
	mu      sync.Mutex
}

// NewInterceptorSpy creates a spy; journal may be nil.
func NewInterceptorSpy(name string, journal *Journal) *InterceptorSpy {
	return &InterceptorSpy{name: name, journal: journal}
}

func (s *InterceptorSpy) Invoke(inv dynproxy.Invocation) ([]any, error) {
	s.mu.Lock()
	s.methods = append(s.methods, inv.Method().Name)
	s.mu.Unlock()

	if s.journal != nil {
		s.journal.Record(s.name)
	}

	return inv.Proceed()
}

// Calls returns how often Invoke ran.
func (s *InterceptorSpy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.methods)
}

// Methods returns the names of the intercepted methods in call order.
func (s *InterceptorSpy) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.methods)
}

var _ dynproxy.Interceptor = (*InterceptorSpy)(nil)
