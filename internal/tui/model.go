// Package tui renders the browser in the terminal and turns key presses into
// browser operations. The bubbletea update goroutine is the only owner of the
// browser.App; fetch completions are applied on every TickMsg.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/gemterm/internal/browser"
	"github.com/glabrego/gemterm/internal/tui/actions"
	"github.com/glabrego/gemterm/internal/tui/platform"
	"github.com/glabrego/gemterm/internal/tui/state"
	tuitheme "github.com/glabrego/gemterm/internal/tui/theme"
	tuiview "github.com/glabrego/gemterm/internal/tui/view"
)

const (
	defaultTickInterval = 200 * time.Millisecond
	defaultWindowHeight = 24
	statusTTL           = 3 * time.Second
)

type Options struct {
	Home         string
	TickInterval time.Duration
	OpenURL      func(string) error
	Copy         func(string) error
}

type Model struct {
	app          *browser.App
	home         string
	tickInterval time.Duration

	keys    keyMap
	help    help.Model
	theme   tuitheme.Theme
	address textinput.Model
	editing bool

	width int

	status   string
	statusID int

	openURLFn func(string) error
	copyFn    func(string) error
}

func NewModel(app *browser.App, opts Options) Model {
	interval := opts.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	openFn := opts.OpenURL
	if openFn == nil {
		openFn = platform.OpenURLInBrowser
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = platform.CopyToClipboard
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "gemini://"
	ti.CharLimit = 1024

	app.SetHeight(state.BodyHeight(defaultWindowHeight))

	return Model{
		app:          app,
		home:         opts.Home,
		tickInterval: interval,
		keys:         newKeyMap(),
		help:         help.New(),
		theme:        tuitheme.Default(),
		address:      ti,
		openURLFn:    openFn,
		copyFn:       copyFn,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{actions.TickCmd(m.tickInterval)}
	if m.home != "" {
		cmds = append(cmds, actions.NavigateCmd(m.home))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.address.Width = max(msg.Width-12, 10)
		m.app.SetHeight(state.BodyHeight(msg.Height))
		return m, nil
	case actions.NavigateMsg:
		m.app.Navigate(msg.Address)
		return m, nil
	case actions.TickMsg:
		m.app.Tick()
		return m, actions.TickCmd(m.tickInterval)
	case actions.OpenURLSuccessMsg:
		return m.setStatus(msg.Status)
	case actions.OpenURLErrorMsg:
		return m.setStatus("Error: " + msg.Err.Error())
	case actions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateAddressBar(msg)
		}
		input, ok := Translate(m.keys, msg)
		if !ok {
			return m, nil
		}
		return m.handleInput(input)
	}
	return m, nil
}

func (m Model) handleInput(input Input) (tea.Model, tea.Cmd) {
	switch input {
	case InputFollow:
		return m.followSelected()
	case InputScrollDown:
		m.app.ScrollDown()
	case InputScrollUp:
		m.app.ScrollUp()
	case InputPageForward:
		m.app.PageForward()
	case InputPageBackward:
		m.app.PageBackward()
	case InputHistoryForward:
		if m.app.History().HasForward() {
			m.app.PageNext()
		}
	case InputHistoryBack:
		if m.app.History().HasBack() {
			m.app.PagePrev()
		}
	case InputNextLink:
		m.app.NextLink()
	case InputPrevLink:
		m.app.PreviousLink()
	case InputClear:
		m.app.ClearHighlighted()
		m.app.DismissErr()
	case InputQuit:
		m.app.Close()
		return m, tea.Quit
	case InputEditAddress:
		m.editing = true
		m.address.SetValue(m.app.Address())
		m.address.CursorEnd()
		return m, m.address.Focus()
	case InputReload:
		m.app.Reload()
	case InputCopyAddress:
		return m, actions.CopyAddressCmd(m.app.Address(), m.copyFn)
	}
	return m, nil
}

func (m Model) updateAddressBar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.app.Close()
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.address.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.address.Blur()
		target := platform.NormalizeAddress(m.address.Value())
		if target == "" {
			return m, nil
		}
		m.app.SetSearch(target)
		m.app.RequestPageFromInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return m, cmd
}

func (m Model) followSelected() (tea.Model, tea.Cmd) {
	target, ok := m.app.ResolveSelected()
	if !ok {
		return m, nil
	}
	if platform.IsExternal(target) {
		url, err := platform.ValidateExternalURL(target)
		if err != nil {
			return m.setStatus("Error: " + err.Error())
		}
		return m, actions.OpenURLCmd(url, m.openURLFn, m.copyFn)
	}
	m.app.RequestPageFromSelected()
	return m, nil
}

func (m Model) setStatus(status string) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status = status
	return m, actions.ClearStatusCmd(m.statusID, statusTTL)
}

func (m Model) View() string {
	bar := ""
	if m.editing {
		bar = m.address.View()
	}

	page := m.app.Page()
	bodyHeight := m.app.Height()
	start, end := state.VisibleRange(page.Len(), m.app.Scroll(), bodyHeight)
	body := tuiview.RenderBody(tuiview.BodyRenderInput{
		Lines: page.Lines,
		Start: start,
		End:   end,
		Width: m.width,
		Theme: m.theme,
		LinkFn: page.LinkNumber,
		Active: page.IsHighlighted,
	})
	if pad := bodyHeight - (end - start); pad > 0 {
		body += strings.Repeat("\n", pad)
	}

	status := tuiview.StatusLine(tuiview.StatusInput{
		Loading:    m.app.Loading(),
		Err:        m.app.Err(),
		Status:     m.status,
		HasBack:    m.app.History().HasBack(),
		HasForward: m.app.History().HasForward(),
		Links:      page.LinkCount(),
		Lines:      page.Len(),
		Top:        m.app.Scroll(),
	}, m.theme)

	var b strings.Builder
	b.WriteString(tuiview.Header(m.app.Address(), bar, m.width, m.theme))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
