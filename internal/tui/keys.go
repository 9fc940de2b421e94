package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Input is a discrete browser command decoded from a key press.
type Input int

const (
	InputFollow Input = iota
	InputScrollDown
	InputScrollUp
	InputPageForward
	InputPageBackward
	InputHistoryForward
	InputHistoryBack
	InputNextLink
	InputPrevLink
	InputClear
	InputQuit
	InputEditAddress
	InputReload
	InputCopyAddress
)

type keyMap struct {
	Follow         key.Binding
	ScrollDown     key.Binding
	ScrollUp       key.Binding
	PageForward    key.Binding
	PageBackward   key.Binding
	HistoryForward key.Binding
	HistoryBack    key.Binding
	NextLink       key.Binding
	PrevLink       key.Binding
	Clear          key.Binding
	Quit           key.Binding
	EditAddress    key.Binding
	Reload         key.Binding
	CopyAddress    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Follow:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "follow")),
		ScrollDown:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		ScrollUp:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		PageForward:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "page down")),
		PageBackward:   key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "page up")),
		HistoryForward: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forward")),
		HistoryBack:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "back")),
		NextLink:       key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "next link")),
		PrevLink:       key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "prev link")),
		Clear:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		EditAddress:    key.NewBinding(key.WithKeys("o", "/"), key.WithHelp("o", "open address")),
		Reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		CopyAddress:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy address")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Follow, k.NextLink, k.PrevLink, k.HistoryBack, k.HistoryForward, k.EditAddress, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Follow, k.NextLink, k.PrevLink, k.Clear},
		{k.ScrollDown, k.ScrollUp, k.PageForward, k.PageBackward},
		{k.HistoryBack, k.HistoryForward, k.Reload},
		{k.EditAddress, k.CopyAddress, k.Quit},
	}
}

// Translate maps a key press to an Input. Unbound keys report false.
func Translate(keys keyMap, msg tea.KeyMsg) (Input, bool) {
	switch {
	case key.Matches(msg, keys.Follow):
		return InputFollow, true
	case key.Matches(msg, keys.ScrollDown):
		return InputScrollDown, true
	case key.Matches(msg, keys.ScrollUp):
		return InputScrollUp, true
	case key.Matches(msg, keys.PageForward):
		return InputPageForward, true
	case key.Matches(msg, keys.PageBackward):
		return InputPageBackward, true
	case key.Matches(msg, keys.HistoryForward):
		return InputHistoryForward, true
	case key.Matches(msg, keys.HistoryBack):
		return InputHistoryBack, true
	case key.Matches(msg, keys.NextLink):
		return InputNextLink, true
	case key.Matches(msg, keys.PrevLink):
		return InputPrevLink, true
	case key.Matches(msg, keys.Clear):
		return InputClear, true
	case key.Matches(msg, keys.Quit):
		return InputQuit, true
	case key.Matches(msg, keys.EditAddress):
		return InputEditAddress, true
	case key.Matches(msg, keys.Reload):
		return InputReload, true
	case key.Matches(msg, keys.CopyAddress):
		return InputCopyAddress, true
	}
	return 0, false
}
