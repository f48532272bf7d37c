package core

// Frame is an encoded outbound event, ready for the wire.
type Frame []byte

// SessionID identifies one live transport connection.
type SessionID string

// Sender abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

func (p *PublishResult) merge(other PublishResult) {
	p.SentTo += other.SentTo
	p.Dropped = append(p.Dropped, other.Dropped...)
}
