package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glabrego/gemterm/internal/browser"
	"github.com/glabrego/gemterm/internal/gemini"
)

const DefaultMaxRedirects = 5

var (
	ErrTooManyRedirects    = errors.New("too many redirects")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
	ErrInvalidRedirectPath = errors.New("invalid redirect target")
)

type GeminiClient interface {
	Fetch(ctx context.Context, rawURL string) (*gemini.Response, error)
}

// StatusError is a non-success, non-redirect response.
type StatusError struct {
	Status int
	Meta   string
}

func (e *StatusError) Error() string {
	if e.Meta == "" {
		return fmt.Sprintf("%d %s", e.Status, gemini.StatusText(e.Status))
	}
	return fmt.Sprintf("%d %s: %s", e.Status, gemini.StatusText(e.Status), e.Meta)
}

// Service turns addresses into parsed documents. It implements browser.Fetcher.
type Service struct {
	client       GeminiClient
	maxRedirects int
}

func NewService(client GeminiClient, maxRedirects int) *Service {
	if maxRedirects < 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &Service{client: client, maxRedirects: maxRedirects}
}

func (s *Service) Fetch(ctx context.Context, address string) (browser.Document, error) {
	current := address
	for redirects := 0; ; redirects++ {
		resp, err := s.client.Fetch(ctx, current)
		if err != nil {
			return browser.Document{}, fmt.Errorf("fetch %s: %w", current, err)
		}

		switch {
		case resp.IsRedirect():
			resp.Close()
			if redirects >= s.maxRedirects {
				return browser.Document{}, fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, current)
			}
			next, ok := browser.ResolveLink(current, strings.TrimSpace(resp.Meta))
			if !ok {
				return browser.Document{}, fmt.Errorf("%w: %q", ErrInvalidRedirectPath, resp.Meta)
			}
			current = next
		case resp.IsSuccess():
			lines, err := readDocument(resp)
			resp.Close()
			if err != nil {
				return browser.Document{}, fmt.Errorf("read %s: %w", current, err)
			}
			return browser.Document{Address: current, Lines: lines}, nil
		default:
			resp.Close()
			return browser.Document{}, &StatusError{Status: resp.Status, Meta: resp.Meta}
		}
	}
}

func readDocument(resp *gemini.Response) ([]gemini.Line, error) {
	mediaType := resp.MediaType()
	switch {
	case mediaType == "text/gemini":
		return gemini.Parse(resp.Body)
	case strings.HasPrefix(mediaType, "text/"):
		return plainText(resp)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mediaType)
	}
}

func plainText(resp *gemini.Response) ([]gemini.Line, error) {
	var lines []gemini.Line
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, gemini.TextLine(strings.TrimSuffix(scanner.Text(), "\r")))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text body: %w", err)
	}
	return lines, nil
}
