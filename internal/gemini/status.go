package gemini

import (
	"fmt"
	"io"
	"mime"
	"strings"
)

const (
	StatusInput              = 10
	StatusSensitiveInput     = 11
	StatusSuccess            = 20
	StatusRedirectTemporary  = 30
	StatusRedirectPermanent  = 31
	StatusTemporaryFailure   = 40
	StatusServerUnavailable  = 41
	StatusCGIError           = 42
	StatusProxyError         = 43
	StatusSlowDown           = 44
	StatusPermanentFailure   = 50
	StatusNotFound           = 51
	StatusGone               = 52
	StatusProxyRefused       = 53
	StatusBadRequest         = 59
	StatusCertificateNeeded  = 60
	StatusCertificateDenied  = 61
	StatusCertificateInvalid = 62
)

var statusText = map[int]string{
	StatusInput:              "input required",
	StatusSensitiveInput:     "sensitive input required",
	StatusSuccess:            "success",
	StatusRedirectTemporary:  "temporary redirect",
	StatusRedirectPermanent:  "permanent redirect",
	StatusTemporaryFailure:   "temporary failure",
	StatusServerUnavailable:  "server unavailable",
	StatusCGIError:           "CGI error",
	StatusProxyError:         "proxy error",
	StatusSlowDown:           "slow down",
	StatusPermanentFailure:   "permanent failure",
	StatusNotFound:           "not found",
	StatusGone:               "gone",
	StatusProxyRefused:       "proxy request refused",
	StatusBadRequest:         "bad request",
	StatusCertificateNeeded:  "client certificate required",
	StatusCertificateDenied:  "client certificate not authorised",
	StatusCertificateInvalid: "client certificate not valid",
}

// StatusText returns a short description of a status code, falling back to its class.
func StatusText(status int) string {
	if text, ok := statusText[status]; ok {
		return text
	}
	if text, ok := statusText[status/10*10]; ok {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// Response is a parsed Gemini response header plus the unread body.
type Response struct {
	Status int
	Meta   string
	Body   io.ReadCloser
}

func (r *Response) Class() int { return r.Status / 10 }

func (r *Response) IsInput() bool    { return r.Class() == 1 }
func (r *Response) IsSuccess() bool  { return r.Class() == 2 }
func (r *Response) IsRedirect() bool { return r.Class() == 3 }

// MediaType returns the lower-cased MIME type of a success response.
// An empty meta means text/gemini.
func (r *Response) MediaType() string {
	meta := strings.TrimSpace(r.Meta)
	if meta == "" {
		return "text/gemini"
	}
	mediaType, _, err := mime.ParseMediaType(meta)
	if err != nil {
		mediaType, _, _ = strings.Cut(meta, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
