package gemini

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// Kind classifies a gemtext line.
type Kind int

const (
	KindText Kind = iota
	KindHeading
	KindListItem
	KindLink
	KindQuote
	KindPreformatted
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list-item"
	case KindLink:
		return "link"
	case KindQuote:
		return "quote"
	case KindPreformatted:
		return "preformatted"
	default:
		return "other"
	}
}

// Line is one classified line of a gemtext document.
type Line struct {
	Kind  Kind
	Text  string
	Level int    // headings only, 1..3
	URL   string // links only
}

func TextLine(text string) Line { return Line{Kind: KindText, Text: text} }

func HeadingLine(level int, text string) Line {
	return Line{Kind: KindHeading, Level: level, Text: text}
}

func ListItemLine(text string) Line { return Line{Kind: KindListItem, Text: text} }

func LinkLine(target, label string) Line {
	return Line{Kind: KindLink, URL: target, Text: label}
}

// ParseError reports a malformed gemtext line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gemtext line %d: %s", e.Line, e.Reason)
}

const maxLineBytes = 1 << 20

// Lines lazily parses gemtext from r. Iteration stops after the first error.
func Lines(r io.Reader) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		preformatted := false
		n := 0
		for scanner.Scan() {
			n++
			raw := strings.TrimSuffix(scanner.Text(), "\r")
			if !utf8.ValidString(raw) {
				yield(Line{}, &ParseError{Line: n, Reason: "invalid UTF-8"})
				return
			}

			if strings.HasPrefix(raw, "```") {
				preformatted = !preformatted
				if !yield(Line{Kind: KindOther, Text: strings.TrimSpace(raw[3:])}, nil) {
					return
				}
				continue
			}
			if preformatted {
				if !yield(Line{Kind: KindPreformatted, Text: raw}, nil) {
					return
				}
				continue
			}

			line, err := parseLine(raw)
			if err != nil {
				yield(Line{}, &ParseError{Line: n, Reason: err.Error()})
				return
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Line{}, fmt.Errorf("read gemtext: %w", err))
		}
	}
}

// Parse collects every line from r, failing on the first malformed one.
func Parse(r io.Reader) ([]Line, error) {
	var out []Line
	for line, err := range Lines(r) {
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func parseLine(raw string) (Line, error) {
	switch {
	case strings.HasPrefix(raw, "=>"):
		rest := strings.TrimLeft(raw[2:], " \t")
		if rest == "" {
			return Line{}, fmt.Errorf("link without target")
		}
		target, label, _ := strings.Cut(strings.ReplaceAll(rest, "\t", " "), " ")
		return LinkLine(target, strings.TrimSpace(label)), nil
	case strings.HasPrefix(raw, "###"):
		return HeadingLine(3, strings.TrimSpace(raw[3:])), nil
	case strings.HasPrefix(raw, "##"):
		return HeadingLine(2, strings.TrimSpace(raw[2:])), nil
	case strings.HasPrefix(raw, "#"):
		return HeadingLine(1, strings.TrimSpace(raw[1:])), nil
	case strings.HasPrefix(raw, "* "):
		return ListItemLine(raw[2:]), nil
	case strings.HasPrefix(raw, ">"):
		return Line{Kind: KindQuote, Text: strings.TrimSpace(raw[1:])}, nil
	default:
		return TextLine(raw), nil
	}
}
