package browser

import "net/url"

// ResolveLink resolves a link target against the address of the page it
// appears on. Absolute targets are returned as given.
func ResolveLink(base, target string) (string, bool) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		return ref.String(), true
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", false
	}
	return baseURL.ResolveReference(ref).String(), true
}
