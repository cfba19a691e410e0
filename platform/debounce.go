package platform

import (
	"github.com/gammazero/deque"
)

// Debouncer holds the last n raw button samples. The debounced level only
// flips when all of them agree.
type Debouncer struct {
	window deque.Deque[bool]
	size   int
	level  bool
}

func NewDebouncer(size int) *Debouncer {
	return &Debouncer{size: max(size, 1)}
}

// Update adds a raw sample and returns the debounced level.
func (d *Debouncer) Update(raw bool) bool {
	d.window.PushBack(raw)
	for d.window.Len() > d.size {
		d.window.PopFront()
	}
	if d.window.Len() < d.size {
		return d.level
	}
	for i := 0; i < d.window.Len(); i++ {
		if d.window.At(i) != raw {
			return d.level
		}
	}
	d.level = raw
	return d.level
}

func (d *Debouncer) Level() bool {
	return d.level
}
