package view

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/glabrego/gemterm/internal/gemini"
	tuitheme "github.com/glabrego/gemterm/internal/tui/theme"
)

// PlainLine renders a gemtext line without styling. Links carry their rank
// among the page's links, starting at 0.
func PlainLine(line gemini.Line, linkNumber int) string {
	switch line.Kind {
	case gemini.KindHeading:
		return strings.Repeat("#", max(line.Level, 1)) + " " + line.Text
	case gemini.KindListItem:
		return "• " + line.Text
	case gemini.KindLink:
		if line.Text == "" {
			return fmt.Sprintf("=> [%d] %s", linkNumber, line.URL)
		}
		return fmt.Sprintf("=> [%d] %s %s", linkNumber, line.URL, line.Text)
	case gemini.KindQuote:
		return "> " + line.Text
	case gemini.KindOther:
		if line.Text == "" {
			return "```"
		}
		return "``` " + line.Text
	default:
		return line.Text
	}
}

// RenderLine truncates the plain line to width cells, then styles it.
func RenderLine(line gemini.Line, linkNumber int, highlighted bool, width int, th tuitheme.Theme) string {
	text := PlainLine(line, linkNumber)
	if width > 0 {
		text = runewidth.Truncate(text, width, "…")
	}
	if highlighted {
		return th.RenderActiveLine(true, text)
	}
	switch line.Kind {
	case gemini.KindHeading:
		return th.Heading(line.Level).Render(text)
	case gemini.KindLink:
		return th.Link.Render(text)
	case gemini.KindListItem:
		return th.Bullet.Render("•") + strings.TrimPrefix(text, "•")
	case gemini.KindQuote:
		return th.Quote.Render(text)
	case gemini.KindPreformatted, gemini.KindOther:
		return th.Preformat.Render(text)
	default:
		return text
	}
}

type BodyRenderInput struct {
	Lines  []gemini.Line
	Start  int
	End    int
	Width  int
	Theme  tuitheme.Theme
	LinkFn func(index int) (int, bool)
	Active func(index int) bool
}

func RenderBody(in BodyRenderInput) string {
	if len(in.Lines) == 0 || in.Start >= in.End || in.Start < 0 {
		return ""
	}
	var b strings.Builder
	for i := in.Start; i < in.End && i < len(in.Lines); i++ {
		n := 0
		if in.LinkFn != nil {
			n, _ = in.LinkFn(i)
		}
		active := in.Active != nil && in.Active(i)
		b.WriteString(RenderLine(in.Lines[i], n, active, in.Width, in.Theme))
		b.WriteString("\n")
	}
	return b.String()
}
