// Package bridge connects a blocking frame source to the repaint-driven UI.
//
// A worker goroutine owns the source and pushes textures into a Mailbox; the
// UI goroutine takes the newest one on each repaint without ever blocking.
package bridge

import (
	"sync"

	"github.com/dialup-inc/camview/metrics"
	"github.com/dialup-inc/camview/ui"
	"github.com/pkg/errors"
)

var (
	// ErrReceiverGone is returned by Send once the receiver dropped the mailbox.
	ErrReceiverGone = errors.New("bridge: receiver gone")
	// ErrMailboxClosed is returned by Send after Close.
	ErrMailboxClosed = errors.New("bridge: mailbox closed")
)

// Delivery is one frame handed from the worker to the UI.
type Delivery struct {
	Texture *ui.Texture
	Seq     uint64
}

// RecvStatus is the outcome of TryReceive.
type RecvStatus int

const (
	Ready RecvStatus = iota
	Empty
	Disconnected
)

func (s RecvStatus) String() string {
	switch s {
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	default:
		return "disconnected"
	}
}

// Mailbox holds at most one delivery. A send overwrites an unreceived
// delivery and frees its texture, so the receiver always gets the newest
// frame and never sees them out of order.
type Mailbox struct {
	mu      sync.Mutex
	slot    *Delivery
	closed  bool
	dropped bool
	drops   uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Send never blocks. On error the caller keeps ownership of d.
func (m *Mailbox) Send(d Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.dropped:
		return ErrReceiverGone
	case m.closed:
		return ErrMailboxClosed
	}

	if m.slot != nil {
		m.slot.Texture.Free()
		m.drops++
		metrics.MailboxDrops.Inc()
	}
	m.slot = &d
	return nil
}

// TryReceive takes the pending delivery. A closed mailbox still hands out its
// last delivery before reporting Disconnected.
func (m *Mailbox) TryReceive() (Delivery, RecvStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slot != nil {
		d := *m.slot
		m.slot = nil
		return d, Ready
	}
	if m.closed || m.dropped {
		return Delivery{}, Disconnected
	}
	return Delivery{}, Empty
}

// Close is called by the sender when it is done.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Drop is called by the receiver when it no longer wants deliveries. The
// pending delivery is freed and later sends fail.
func (m *Mailbox) Drop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropped = true
	if m.slot != nil {
		m.slot.Texture.Free()
		m.slot = nil
	}
}

// Drops counts deliveries overwritten before they were received.
func (m *Mailbox) Drops() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}
