// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pump

import (
	"testing"
	"time"
)

func TestPumpOrder(t *testing.T) {
	p := Make[int]()
	defer p.Release()

	const n = 100
	for i := 0; i < n; i++ {
		p.Send(i)
	}
	for i := 0; i < n; i++ {
		got := <-p.Events()
		if got != i {
			t.Fatalf("event #%d: got %d, want %d", i, got, i)
		}
	}
}

func TestPumpSendDoesNotBlock(t *testing.T) {
	p := Make[int]()
	defer p.Release()

	// Nothing receives; sends must still complete, growing the internal
	// buffer past its initial size.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Send(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked with no receiver")
	}
}

func TestPumpSendAfterRelease(t *testing.T) {
	p := Make[int]()
	p.Release()
	// Must return promptly instead of blocking on the stopped pump.
	p.Send(1)
}
