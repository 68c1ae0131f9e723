package onset

// PeakHistory is a two-slot shift register over adjusted peak values.
// Slot 0 holds the value from one step ago, slot 1 the value from two steps
// ago.
type PeakHistory struct {
	slots [2]float64
}

// Push shifts current into the register and reports whether the value that
// was one step ago is a local maximum: strictly greater than the value before
// it and not smaller than current. A plateau on the falling side still counts.
func (h *PeakHistory) Push(current float64) bool {
	last, lastLast := h.slots[0], h.slots[1]
	isPeak := lastLast < last && last >= current
	h.slots[1] = last
	h.slots[0] = current
	return isPeak
}

// Last is the value pushed one step ago.
func (h *PeakHistory) Last() float64 { return h.slots[0] }

// LastLast is the value pushed two steps ago.
func (h *PeakHistory) LastLast() float64 { return h.slots[1] }
