package browser

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glabrego/gemterm/internal/gemini"
)

type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string][]gemini.Line
	errs     map[string]error
	gates    map[string]chan struct{}
	panics   map[string]bool
	requests []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  make(map[string][]gemini.Line),
		errs:   make(map[string]error),
		gates:  make(map[string]chan struct{}),
		panics: make(map[string]bool),
	}
}

func (f *fakeFetcher) page(address string, lines ...gemini.Line) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[address] = lines
	return f
}

// gate holds fetches of address until the returned func is called.
func (f *fakeFetcher) gate(address string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[address] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeFetcher) Fetch(ctx context.Context, address string) (Document, error) {
	f.mu.Lock()
	f.requests = append(f.requests, address)
	gate := f.gates[address]
	err := f.errs[address]
	lines, ok := f.pages[address]
	panics := f.panics[address]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Document{}, ctx.Err()
		}
	}
	if panics {
		panic("boom")
	}
	if err != nil {
		return Document{}, err
	}
	if !ok {
		return Document{}, fmt.Errorf("no page at %s", address)
	}
	return Document{Address: address, Lines: lines}, nil
}

func (f *fakeFetcher) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// settle waits for all in-flight fetches and applies their completions.
func settle(t *testing.T, a *App) int {
	t.Helper()
	a.dispatcher.Wait()
	return a.Tick()
}

// waitQueued blocks until n completions sit in the event channel.
func waitQueued(t *testing.T, a *App, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(a.events) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d queued completions, have %d", n, len(a.events))
		}
		time.Sleep(time.Millisecond)
	}
}

// waitRequests blocks until the fetcher has seen n requests.
func waitRequests(t *testing.T, f *fakeFetcher, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(f.Requests()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d requests, have %v", n, f.Requests())
		}
		time.Sleep(time.Millisecond)
	}
}

// load applies a completed page directly, as if a fetch had finished.
func load(a *App, address string, push bool, lines ...gemini.Line) {
	a.handleEvent(Event{Address: address, Lines: lines, PushHistory: push, Generation: a.generation})
}

func textLines(n int) []gemini.Line {
	lines := make([]gemini.Line, n)
	for i := range lines {
		lines[i] = gemini.TextLine(fmt.Sprintf("line %d", i))
	}
	return lines
}
