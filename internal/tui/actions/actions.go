package actions

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg asks the model to drain completed fetches.
type TickMsg struct {
	At time.Time
}

// NavigateMsg asks the model to load Address as a fresh navigation.
type NavigateMsg struct {
	Address string
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

type ClearStatusMsg struct {
	ID int
}

// TickCmd fires one TickMsg after interval. The model re-arms it on every tick.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(at time.Time) tea.Msg {
		return TickMsg{At: at}
	})
}

func NavigateCmd(address string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Address: address}
	}
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened " + url + " in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyAddressCmd(address string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(address); err == nil {
				return OpenURLSuccessMsg{Status: "Address copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy address to clipboard")}
	}
}
