// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Packset/affinity-wine/winuser"
)

func TestUntrackableWindowsAreRefused(t *testing.T) {
	h := newHarness(t)
	rect := image.Rect(0, 0, 100, 100)

	// The desktop root has no ancestor.
	desktop := h.wm.DesktopWindow()
	if h.drv.WindowPosChanging(desktop, 0, rect, rect, rect) {
		t.Errorf("desktop window reported as needing a surface")
	}
	if data := h.drv.lockWinData(desktop); data != nil {
		h.drv.releaseWinData(data)
		t.Errorf("desktop window was tracked")
	}

	// A message-style window hangs off a root that is not the desktop.
	msgChild := h.wm.CreateWindow(winuser.Handle(0xdead), winuser.StyleVisible, 0, "", rect)
	if h.drv.WindowPosChanging(msgChild, 0, rect, rect, rect) {
		t.Errorf("message window reported as needing a surface")
	}
	if data := h.drv.lockWinData(msgChild); data != nil {
		h.drv.releaseWinData(data)
		t.Errorf("message window was tracked")
	}
}

func TestCreateKeepsRaceWinner(t *testing.T) {
	h := newHarness(t)
	win := h.wm.CreateWindow(0, managedStyle, 0, "racer", image.Rect(0, 0, 50, 50))

	first := image.Rect(10, 10, 110, 110)
	winner := h.drv.createWinData(win, first, first, first)
	if winner == nil {
		t.Fatal("createWinData returned nil for a trackable window")
	}
	h.drv.releaseWinData(winner)

	second := image.Rect(20, 20, 220, 220)
	loser := h.drv.createWinData(win, second, second, second)
	if loser != winner {
		t.Fatalf("second create returned a new record; want the winner's")
	}
	if loser.windowRect != first {
		t.Errorf("record rect = %v, want the winner's %v", loser.windowRect, first)
	}
	h.drv.releaseWinData(loser)
}

func TestTopParentResolution(t *testing.T) {
	h := newHarness(t)
	top := h.newToplevel("top", image.Rect(0, 0, 400, 300))
	mid := h.newChild(top, image.Rect(10, 10, 200, 200))
	leaf := h.newChild(mid, image.Rect(20, 20, 100, 100))

	topData := h.drv.lockWinData(top)
	if got := h.drv.topParent(topData); got != nil {
		t.Errorf("topParent(top-level) = %v, want nil", got.handle)
	}
	h.drv.releaseWinData(topData)

	leafData := h.drv.lockWinData(leaf)
	got := h.drv.topParent(leafData)
	if got == nil || got.handle != top {
		t.Errorf("topParent(leaf) = %v, want %v", got, top)
	}
	h.drv.releaseWinData(leafData)

	// An untracked ancestor resolves to no record at all.
	orphanParent := h.wm.CreateWindow(0, managedStyle, 0, "untracked", image.Rect(0, 0, 10, 10))
	orphan := h.newChild(orphanParent, image.Rect(0, 0, 5, 5))
	orphanData := h.drv.lockWinData(orphan)
	if got := h.drv.topParent(orphanData); got != nil {
		t.Errorf("topParent with untracked ancestor = %v, want nil", got.handle)
	}
	h.drv.releaseWinData(orphanData)
}

func TestSortedHandlesAscending(t *testing.T) {
	h := newHarness(t)
	rect := image.Rect(0, 0, 100, 100)
	var want []winuser.Handle
	for i := 0; i < 4; i++ {
		want = append(want, h.newToplevel("w", rect))
	}

	h.drv.mu.Lock()
	got := h.drv.sortedHandles()
	h.drv.mu.Unlock()

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("handle order mismatch (-want +got):\n%s", diff)
	}
}

func TestDestroyWindowReleasesRecord(t *testing.T) {
	h := newHarness(t)
	rect := image.Rect(0, 0, 320, 240)
	target := &fakeTarget{}

	win := h.wm.CreateWindow(0, managedStyle, 0, "doomed", rect)
	h.targets[win] = target
	h.show(win, rect)

	remote := h.comp.lastRemote(win)
	if remote == nil {
		t.Fatal("no surface was created")
	}

	h.drv.DestroyWindow(win)

	if got := target.lastOutput(); got != nil {
		t.Errorf("target still bound to a surface after destroy")
	}
	if !remote.destroyed {
		t.Errorf("protocol surface not destroyed")
	}
	if data := h.drv.lockWinData(win); data != nil {
		h.drv.releaseWinData(data)
		t.Errorf("record still present after destroy")
	}

	// Destroying again is a no-op.
	before := len(h.comp.Trace())
	h.drv.DestroyWindow(win)
	if got := h.comp.TraceFrom(before); len(got) != 0 {
		t.Errorf("second destroy issued protocol requests: %v", got)
	}
}
