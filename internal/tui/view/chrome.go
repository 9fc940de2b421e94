package view

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	tuitheme "github.com/glabrego/gemterm/internal/tui/theme"
)

// Header renders the title and the address bar. bar is the already rendered
// text input while editing, else empty.
func Header(address, bar string, width int, th tuitheme.Theme) string {
	title := th.Title.Render("gemterm")
	if bar != "" {
		return title + " " + bar
	}
	if width > 10 {
		address = runewidth.Truncate(address, width-10, "…")
	}
	return title + " " + th.Address.Render(address)
}

type StatusInput struct {
	Loading    bool
	Err        error
	Status     string
	HasBack    bool
	HasForward bool
	Links      int
	Lines      int
	Top        int
}

func StatusLine(in StatusInput, th tuitheme.Theme) string {
	state := "idle"
	stateLabel := th.StateIdle.Render("state")
	switch {
	case in.Err != nil:
		state = "error"
		stateLabel = th.StateWarn.Render("state")
	case in.Loading:
		state = "loading"
		stateLabel = th.StateLoad.Render("state")
	}

	main := "Ready"
	switch {
	case in.Status != "":
		main = in.Status
	case in.Err != nil:
		main = in.Err.Error()
	}

	nav := ""
	if in.HasBack {
		nav += "◀"
	}
	if in.HasForward {
		nav += "▶"
	}

	parts := []string{
		fmt.Sprintf("%s: %s", stateLabel, state),
		th.MetaLabel.Render("links") + " " + th.MetaValue.Render(fmt.Sprintf("%d", in.Links)),
		th.MetaLabel.Render("line") + " " + th.MetaValue.Render(fmt.Sprintf("%d/%d", min(in.Top+1, in.Lines), in.Lines)),
	}
	if nav != "" {
		parts = append(parts, th.MetaValue.Render(nav))
	}
	parts = append(parts, th.MetaValue.Render(main))
	return strings.Join(parts, " • ")
}
