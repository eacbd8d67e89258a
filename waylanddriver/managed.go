// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"github.com/Packset/affinity-wine/winuser"
)

// isWindowManaged reports whether the compositor should treat h as a
// regular desktop window. Must be called with the registry unlocked: the
// owned-popup walk takes the registry lock for other windows.
func (d *Driver) isWindowManaged(h winuser.Handle, flags winuser.SetPosFlags, windowRect image.Rectangle) bool {
	style := d.wm.Style(h)

	// Child windows are never managed.
	if style&(winuser.StyleChild|winuser.StylePopup) == winuser.StyleChild {
		return false
	}
	// Activated windows are managed.
	if flags&(winuser.SetPosNoActivate|winuser.SetPosHideWindow) == 0 {
		return true
	}
	if h == d.wm.ActiveWindow() {
		return true
	}
	// Windows with a full caption are managed.
	if style&winuser.StyleCaption == winuser.StyleCaption {
		return true
	}
	// Windows with a sizing frame are managed.
	if style&winuser.StyleThickFrame != 0 {
		return true
	}
	if style&winuser.StylePopup != 0 {
		// Popups with a system menu carry caption-grade chrome.
		if style&winuser.StyleSysMenu != 0 {
			return true
		}
		// Popups covering a whole work area are managed.
		if work := d.wm.MonitorWorkArea(h); !work.Empty() &&
			windowRect.Min.X <= work.Min.X && windowRect.Max.X >= work.Max.X &&
			windowRect.Min.Y <= work.Min.Y && windowRect.Max.Y >= work.Max.Y {
			return true
		}
	}
	// Application windows are managed.
	if d.wm.ExStyle(h)&winuser.ExStyleAppWindow != 0 {
		return true
	}
	// Owners of managed popups are managed.
	return d.hasOwnedManagedPopup(h)
}

// hasOwnedManagedPopup reports whether some managed window above h in the
// z-order is owned by h. Owned windows always stack above their owner, so
// the walk stops once it reaches h itself.
func (d *Driver) hasOwnedManagedPopup(h winuser.Handle) bool {
	for _, w := range d.wm.WindowList() {
		if w == h {
			return false
		}
		if d.wm.Owner(w) != h {
			continue
		}
		if d.isManaged(w) {
			return true
		}
	}
	return false
}

// isManaged returns the recorded managed state of a tracked window.
func (d *Driver) isManaged(h winuser.Handle) bool {
	data := d.lockWinData(h)
	if data == nil {
		return false
	}
	managed := data.managed
	d.releaseWinData(data)
	return managed
}
