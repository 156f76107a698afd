package registration

// waitlist is a strict FIFO queue of matric numbers pending a seat in one
// section. Promotion order is enqueue order, always.
type waitlist struct {
	queue []string
}

func newWaitlist() *waitlist {
	return &waitlist{}
}

func (w *waitlist) enqueue(matricNo string) {
	w.queue = append(w.queue, matricNo)
}

// dequeue pops the head of the queue.
func (w *waitlist) dequeue() (string, bool) {
	if len(w.queue) == 0 {
		return "", false
	}
	head := w.queue[0]
	w.queue = w.queue[1:]
	return head, true
}

// remove withdraws a student from any position in the queue. Returns false
// when the student was not queued.
func (w *waitlist) remove(matricNo string) bool {
	for i, m := range w.queue {
		if m == matricNo {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (w *waitlist) contains(matricNo string) bool {
	for _, m := range w.queue {
		if m == matricNo {
			return true
		}
	}
	return false
}

// position returns the 1-based queue position, or 0 when absent.
func (w *waitlist) position(matricNo string) int {
	for i, m := range w.queue {
		if m == matricNo {
			return i + 1
		}
	}
	return 0
}

func (w *waitlist) len() int {
	return len(w.queue)
}

func (w *waitlist) members() []string {
	out := make([]string, len(w.queue))
	copy(out, w.queue)
	return out
}
