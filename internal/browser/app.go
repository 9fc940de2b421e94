// Package browser is the application core: it owns the displayed page, the
// navigation history and the address bar text, dispatches page fetches, and
// applies their completions on Tick.
//
// An App is owned by a single goroutine. Fetch workers only ever send on the
// App's event channel; Tick is the only place their results are applied.
package browser

import (
	"time"

	"github.com/glabrego/gemterm/internal/debug"
)

const eventBuffer = 64

type Options struct {
	Home         string
	FetchTimeout time.Duration
}

type App struct {
	page    Page
	address string
	search  string
	scroll  int
	height  int
	history History

	events     chan Event
	dispatcher *Dispatcher

	// generation increases with every history-extending dispatch; completions
	// tagged with an older generation are stale.
	generation uint64
	pending    int
	err        error
}

func New(fetcher Fetcher, opts Options) *App {
	events := make(chan Event, eventBuffer)
	return &App{
		page:       NewPage(),
		address:    opts.Home,
		search:     opts.Home,
		events:     events,
		dispatcher: NewDispatcher(fetcher, events, opts.FetchTimeout),
	}
}

func (a *App) Page() *Page { return &a.page }
func (a *App) Address() string { return a.address }
func (a *App) Search() string { return a.search }
func (a *App) Scroll() int { return a.scroll }
func (a *App) Height() int { return a.height }
func (a *App) History() *History { return &a.history }
func (a *App) Generation() uint64 { return a.generation }
func (a *App) Loading() bool { return a.pending > 0 }
func (a *App) SetSearch(s string) { a.search = s }
func (a *App) Err() error { return a.err }
func (a *App) DismissErr() { a.err = nil }

// SetHeight records the viewport height supplied by the renderer.
func (a *App) SetHeight(h int) {
	if h < 0 {
		h = 0
	}
	a.height = h
	a.scroll = clamp(a.scroll, 0, a.maxScroll())
}

func (a *App) maxScroll() int {
	if n := a.page.Len(); n > 0 {
		return n - 1
	}
	return 0
}

func (a *App) ScrollDown() {
	a.scroll = clamp(a.scroll+1, 0, a.maxScroll())
}

func (a *App) ScrollUp() {
	a.scroll = clamp(a.scroll-1, 0, a.maxScroll())
}

func (a *App) PageForward() {
	a.scroll = clamp(a.scroll+a.height, 0, a.maxScroll())
}

func (a *App) PageBackward() {
	a.scroll = clamp(a.scroll-a.height, 0, a.maxScroll())
}

func (a *App) NextLink() { a.page.nextLink() }
func (a *App) PreviousLink() { a.page.previousLink() }

func (a *App) ClearHighlighted() {
	a.page.Highlighted = NoHighlight
}

// RequestPageFromInput loads the address bar text as a fresh navigation.
func (a *App) RequestPageFromInput() {
	a.Dispatch(Action{Address: a.search, PushHistory: true})
}

// Navigate replaces the address bar text with address and loads it.
func (a *App) Navigate(address string) {
	a.search = address
	a.RequestPageFromInput()
}

// ResolveSelected returns the absolute address of the highlighted link.
func (a *App) ResolveSelected() (string, bool) {
	line, ok := a.page.HighlightedLine()
	if !ok {
		return "", false
	}
	return ResolveLink(a.address, line.URL)
}

// RequestPageFromSelected follows the highlighted link. Nothing happens when
// no link is highlighted or its target cannot be resolved.
func (a *App) RequestPageFromSelected() {
	target, ok := a.ResolveSelected()
	if !ok {
		return
	}
	a.Dispatch(Action{Address: target, PushHistory: true})
}

// PageNext replays the next address in history.
func (a *App) PageNext() {
	if address, ok := a.history.Forward(); ok {
		a.Dispatch(Action{Address: address, PushHistory: false})
	}
}

// PagePrev replays the previous address in history.
func (a *App) PagePrev() {
	if address, ok := a.history.Back(); ok {
		a.Dispatch(Action{Address: address, PushHistory: false})
	}
}

// Reload fetches the current address again without touching history. It
// never reuses a fetch of the same address that is still in flight.
func (a *App) Reload() {
	if a.address == "" {
		return
	}
	a.Dispatch(Action{Address: a.address, PushHistory: false, Fresh: true})
}

// Dispatch starts a fetch. History-extending actions start a new generation;
// replays reuse the current one.
func (a *App) Dispatch(action Action) {
	if action.PushHistory {
		a.generation++
	}
	a.pending++
	a.dispatcher.Dispatch(action, a.generation)
}

// Tick applies every completion that is already waiting, in arrival order,
// and returns how many were applied. It never blocks.
func (a *App) Tick() int {
	applied := 0
	for {
		select {
		case ev := <-a.events:
			if a.handleEvent(ev) {
				applied++
			}
		default:
			return applied
		}
	}
}

func (a *App) handleEvent(ev Event) bool {
	if a.pending > 0 {
		a.pending--
	}
	if ev.Generation < a.generation {
		debug.Log("drop stale completion for %s gen=%d current=%d", ev.Address, ev.Generation, a.generation)
		return false
	}
	if ev.Failed() {
		a.err = ev.Err
		return true
	}

	a.page.Rebuild(ev.Lines)
	a.scroll = 0
	a.address = ev.Address
	a.err = nil
	if ev.PushHistory {
		a.history.Push(a.address)
	}
	debug.Log("loaded %s (%d lines, %d links)", a.address, a.page.Len(), a.page.LinkCount())
	return true
}

// Close stops delivery of completions still in flight.
func (a *App) Close() {
	a.dispatcher.Close()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
