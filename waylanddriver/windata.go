// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Packset/affinity-wine/winuser"
)

// windowData is the registry record for one window. All fields are
// guarded by the driver's registry lock; the surface has its own lock for
// the state shared with the compositor dispatch thread.
type windowData struct {
	handle winuser.Handle

	windowRect  image.Rectangle
	clientRect  image.Rectangle
	visibleRect image.Rectangle

	// managed is derived from style heuristics on every position
	// change, never set directly.
	managed bool

	surface *Surface
	target  PresentTarget
}

// createWinData tracks a new window and returns its record with the
// registry locked. It returns nil for windows that are never tracked:
// the desktop root and message-only windows, recognizable by an ancestor
// chain that ends immediately off the root.
//
// When another thread won the creation race, the loser's allocation is
// dropped and the winner's record is returned.
func (d *Driver) createWinData(h winuser.Handle, windowRect, clientRect, visibleRect image.Rectangle) *windowData {
	parent := d.wm.Parent(h)
	if parent == 0 {
		return nil
	}
	if parent != d.wm.DesktopWindow() && d.wm.Parent(parent) == 0 {
		return nil
	}

	data := &windowData{
		handle:      h,
		windowRect:  windowRect,
		clientRect:  clientRect,
		visibleRect: visibleRect,
	}

	d.mu.Lock()
	if prior, ok := d.windows[h]; ok {
		return prior
	}
	d.windows[h] = data

	d.log.Debug("tracking window", "hwnd", h)

	return data
}

// lockWinData returns the record for h with the registry locked, or nil
// with the registry unlocked when the window is untracked.
func (d *Driver) lockWinData(h winuser.Handle) *windowData {
	d.mu.Lock()
	if data := d.windows[h]; data != nil {
		return data
	}
	d.mu.Unlock()
	return nil
}

// releaseWinData releases the record returned by lockWinData or
// createWinData.
func (d *Driver) releaseWinData(data *windowData) {
	d.mu.Unlock()
}

// destroyWinData removes the record from the registry and releases the
// window's resources. The registry lock is dropped before any protocol
// teardown so the compositor dispatch thread is never held up by it.
func (d *Driver) destroyWinData(data *windowData) {
	delete(d.windows, data.handle)
	d.mu.Unlock()

	if data.target != nil {
		data.target.SetOutput(nil, image.Rectangle{})
	}
	if data.surface != nil {
		data.surface.destroy()
	}
}

// topParent resolves the record of the top-level window anchoring data,
// or nil when data is itself top-level or its top-level ancestor is
// untracked. The registry lock must be held.
func (d *Driver) topParent(data *windowData) *windowData {
	desktop := d.wm.DesktopWindow()
	cur := data.handle
	for {
		parent := d.wm.Parent(cur)
		if parent == 0 || parent == desktop {
			break
		}
		cur = parent
	}
	if cur == data.handle {
		return nil
	}
	return d.windows[cur]
}

// sortedHandles returns all tracked handles in ascending order, so
// descendant sweeps are deterministic for a given registry state. The
// registry lock must be held.
func (d *Driver) sortedHandles() []winuser.Handle {
	handles := maps.Keys(d.windows)
	slices.Sort(handles)
	return handles
}
