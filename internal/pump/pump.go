// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pump provides an infinitely buffered event channel.
//
// Senders posting window messages must never block, even when the
// receiving thread is itself blocked trying to reach the sender. Pump
// decouples the two sides with an elastic in-memory queue.
package pump

// Make returns a new Pump. Call Release to stop pumping events.
func Make[T any]() Pump[T] {
	p := Pump[T]{
		in:      make(chan T),
		out:     make(chan T),
		release: make(chan struct{}),
	}
	go p.run()
	return p
}

// Pump is an event pump, such that calling Send(e) will eventually send e
// on the event channel, in order, but Send will always complete soon, even
// if nothing is receiving on the event channel. It is effectively an
// infinitely buffered channel.
type Pump[T any] struct {
	in      chan T
	out     chan T
	release chan struct{}
}

// Events returns the event channel.
func (p *Pump[T]) Events() <-chan T {
	return p.out
}

// Send sends an event on the event channel.
func (p *Pump[T]) Send(event T) {
	select {
	case p.in <- event:
	case <-p.release:
	}
}

// Release stops the event pump. Pending events may or may not be delivered
// on the event channel. Calling Release will not close the event channel.
func (p *Pump[T]) Release() {
	close(p.release)
}

func (p *Pump[T]) run() {
	// initialSize is the initial size of the circular buffer. It must be a
	// power of 2.
	const initialSize = 16
	var zero T
	i, j, buf, mask := 0, 0, make([]T, initialSize), initialSize-1
	for {
		maybeOut := p.out
		if i == j {
			maybeOut = nil
		}
		select {
		case maybeOut <- buf[i&mask]:
			buf[i&mask] = zero
			i++
		case e := <-p.in:
			// Allocate a bigger buffer if necessary.
			if i+len(buf) == j {
				b := make([]T, 2*len(buf))
				n := copy(b, buf[j&mask:])
				copy(b[n:], buf[:j&mask])
				i, j = 0, len(buf)
				buf, mask = b, len(b)-1
			}
			buf[j&mask] = e
			j++
		case <-p.release:
			return
		}
	}
}
