package browser

// History is a back/forward stack pair over visited addresses. The top of
// prev is the current address.
type History struct {
	prev []string
	next []string
}

// Push records a fresh navigation and drops any forward path.
func (h *History) Push(address string) {
	h.prev = append(h.prev, address)
	h.next = h.next[:0]
}

// Back moves the current address onto the forward stack and returns the
// address now on top. It never moves past the first page.
func (h *History) Back() (string, bool) {
	if len(h.prev) <= 1 {
		return "", false
	}
	top := h.prev[len(h.prev)-1]
	h.prev = h.prev[:len(h.prev)-1]
	h.next = append(h.next, top)
	return h.prev[len(h.prev)-1], true
}

func (h *History) Forward() (string, bool) {
	if len(h.next) == 0 {
		return "", false
	}
	top := h.next[len(h.next)-1]
	h.next = h.next[:len(h.next)-1]
	h.prev = append(h.prev, top)
	return top, true
}

func (h *History) HasBack() bool { return len(h.prev) > 1 }

func (h *History) HasForward() bool { return len(h.next) > 0 }

func (h *History) Current() (string, bool) {
	if len(h.prev) == 0 {
		return "", false
	}
	return h.prev[len(h.prev)-1], true
}

// Len returns the number of addresses on both stacks.
func (h *History) Len() int { return len(h.prev) + len(h.next) }
