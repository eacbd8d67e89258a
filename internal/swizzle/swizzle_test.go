// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swizzle

import (
	"bytes"
	"testing"
)

func TestBGRA(t *testing.T) {
	p := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
	}
	want := []byte{
		0x03, 0x02, 0x01, 0x04,
		0x07, 0x06, 0x05, 0x08,
	}
	got := append([]byte(nil), p...)
	BGRA(got)
	if !bytes.Equal(got, want) {
		t.Errorf("BGRA: got % x, want % x", got, want)
	}
	BGRA(got)
	if !bytes.Equal(got, p) {
		t.Errorf("BGRA twice: got % x, want % x", got, p)
	}
}

func TestBGRABadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for odd-length input")
		}
	}()
	BGRA(make([]byte, 6))
}
