package core

import "github.com/koyo/danmu/internal/domain"

// backlog is a fixed-capacity FIFO ring over recent messages. The oldest
// entry is overwritten when full; nothing is ever deleted explicitly.
type backlog struct {
	buf  []domain.Message
	head int
	n    int
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{buf: make([]domain.Message, capacity)}
}

func (b *backlog) push(m domain.Message) {
	if b.n < len(b.buf) {
		b.buf[(b.head+b.n)%len(b.buf)] = m
		b.n++
		return
	}
	b.buf[b.head] = m
	b.head = (b.head + 1) % len(b.buf)
}

func (b *backlog) len() int { return b.n }

// snapshot returns an ordered copy, oldest first. Callers own the slice;
// later pushes never retroactively change what was handed out.
func (b *backlog) snapshot() []domain.Message {
	out := make([]domain.Message, b.n)
	for i := 0; i < b.n; i++ {
		out[i] = b.buf[(b.head+i)%len(b.buf)]
	}
	return out
}
