package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/glabrego/gemterm/internal/debug"
	"github.com/glabrego/gemterm/internal/gemini"
)

const defaultFetchTimeout = 15 * time.Second

// Document is a fetched and parsed page. Address is the final address after
// any redirects.
type Document struct {
	Address string
	Lines   []gemini.Line
}

type Fetcher interface {
	Fetch(ctx context.Context, address string) (Document, error)
}

// Action requests a page. PushHistory is false for back/forward replays.
// Fresh actions never share an in-flight fetch of the same address.
type Action struct {
	Address     string
	PushHistory bool
	Fresh       bool
}

// Event is the completion of one dispatched Action. Err is set when the
// fetch failed; Address then still names the requested page.
type Event struct {
	Address     string
	Lines       []gemini.Line
	PushHistory bool
	Generation  uint64
	Err         error
}

func (e Event) Failed() bool { return e.Err != nil }

// FetchError is the failure reason delivered for a page that could not be loaded.
type FetchError struct {
	Address string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Address, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Dispatcher runs one goroutine per Action and reports each completion on
// the events channel. Concurrent requests for the same address share a
// single fetch.
type Dispatcher struct {
	fetcher Fetcher
	events  chan<- Event
	timeout time.Duration
	group   singleflight.Group
	wg      sync.WaitGroup

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(fetcher Fetcher, events chan<- Event, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Dispatcher{
		fetcher: fetcher,
		events:  events,
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Dispatch(action Action, generation uint64) {
	debug.Log("dispatch %s push=%t gen=%d", action.Address, action.PushHistory, generation)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ev := d.run(action, generation)
		select {
		case d.events <- ev:
		case <-d.done:
			debug.Log("dropped completion for %s after close", action.Address)
		}
	}()
}

func (d *Dispatcher) run(action Action, generation uint64) Event {
	ev := Event{
		Address:     action.Address,
		PushHistory: action.PushHistory,
		Generation:  generation,
	}

	start := time.Now()
	var (
		v      any
		err    error
		shared bool
	)
	if action.Fresh {
		v, err = d.fetch(action.Address)
	} else {
		v, err, shared = d.group.Do(action.Address, func() (any, error) {
			return d.fetch(action.Address)
		})
	}
	debug.LogTiming("fetch "+action.Address, time.Since(start))
	if err != nil {
		debug.Log("fetch %s failed: %v", action.Address, err)
		ev.Err = &FetchError{Address: action.Address, Err: err}
		return ev
	}
	if shared {
		debug.Log("fetch %s shared with a concurrent request", action.Address)
	}

	doc := v.(Document)
	if doc.Address != "" {
		ev.Address = doc.Address
	}
	ev.Lines = doc.Lines
	return ev
}

func (d *Dispatcher) fetch(address string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch worker panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return d.fetcher.Fetch(ctx, address)
}

// Wait blocks until every dispatched worker has delivered or dropped its event.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close releases workers blocked on a full channel. Their events are dropped.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}
