package simulator

// History is a stack of per-step diff sets, most recent on top.
type History struct {
	Data [][]Diff
}

func (h *History) Push(diffs []Diff) {
	h.Data = append(h.Data, diffs)
}

func (h *History) Pop() (diffs []Diff, ok bool) {
	diffs, ok = h.Peek()
	if ok {
		h.Data[len(h.Data)-1] = nil
		h.Data = h.Data[:len(h.Data)-1]
	}
	return
}

func (h *History) Peek() (diffs []Diff, ok bool) {
	if h.Empty() {
		return
	}

	return h.Data[len(h.Data)-1], true
}

func (h *History) Len() int {
	return len(h.Data)
}

func (h *History) Empty() bool {
	return len(h.Data) == 0
}

func (h *History) Reset() {
	clear(h.Data)
	h.Data = h.Data[:0]
}
