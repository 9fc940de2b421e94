package browser

import "github.com/glabrego/gemterm/internal/gemini"

// NoHighlight marks a page with no selected link.
const NoHighlight = -1

// Page is the currently displayed document plus its link index.
//
// LinkIndices holds the positions of link lines in document order and
// LinkNumbers maps each of those positions back to its rank, so
// LinkNumbers[LinkIndices[i]] == i. Highlighted is either NoHighlight or a
// valid index into LinkIndices.
type Page struct {
	Lines       []gemini.Line
	LinkIndices []int
	LinkNumbers map[int]int
	Highlighted int
}

func NewPage() Page {
	return Page{LinkNumbers: map[int]int{}, Highlighted: NoHighlight}
}

// Rebuild replaces the page contents and recomputes the link index.
func (p *Page) Rebuild(lines []gemini.Line) {
	p.Lines = lines
	p.LinkIndices = nil
	p.LinkNumbers = make(map[int]int)
	for i, line := range lines {
		if line.Kind == gemini.KindLink {
			p.LinkNumbers[i] = len(p.LinkIndices)
			p.LinkIndices = append(p.LinkIndices, i)
		}
	}
	p.Highlighted = NoHighlight
}

func (p *Page) Len() int { return len(p.Lines) }

func (p *Page) LinkCount() int { return len(p.LinkIndices) }

// LinkNumber returns the 0-based link rank of the line at position i.
func (p *Page) LinkNumber(i int) (int, bool) {
	n, ok := p.LinkNumbers[i]
	return n, ok
}

// IsHighlighted reports whether the line at position i is the selected link.
func (p *Page) IsHighlighted(i int) bool {
	return p.Highlighted != NoHighlight && p.LinkIndices[p.Highlighted] == i
}

func (p *Page) HighlightedLine() (gemini.Line, bool) {
	if p.Highlighted == NoHighlight {
		return gemini.Line{}, false
	}
	return p.Lines[p.LinkIndices[p.Highlighted]], true
}

func (p *Page) nextLink() {
	n := len(p.LinkIndices)
	if n == 0 {
		return
	}
	if p.Highlighted == NoHighlight || p.Highlighted == n-1 {
		p.Highlighted = 0
		return
	}
	p.Highlighted++
}

func (p *Page) previousLink() {
	n := len(p.LinkIndices)
	if n == 0 {
		return
	}
	if p.Highlighted == NoHighlight || p.Highlighted == 0 {
		p.Highlighted = n - 1
		return
	}
	p.Highlighted--
}
