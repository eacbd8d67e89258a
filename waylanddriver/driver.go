// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"github.com/Packset/affinity-wine/winuser"
)

// DestroyWindow releases every driver resource attached to h. No-op for
// untracked windows.
func (d *Driver) DestroyWindow(h winuser.Handle) {
	data := d.lockWinData(h)
	if data == nil {
		return
	}

	d.log.Debug("destroying window", "hwnd", h)

	d.destroyWinData(data)
	if d.releaseDrawable != nil {
		d.releaseDrawable(h)
	}
	d.comp.Flush()
}

// WindowPosChanging tracks h if needed and reports whether the window
// requires a dedicated presentation surface. Windows reported false stay
// on the window manager's default presentation path.
func (d *Driver) WindowPosChanging(h winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) bool {
	d.log.Debug("position changing",
		"hwnd", h, "flags", uint32(flags),
		"window", windowRect, "client", clientRect, "visible", visibleRect)

	data := d.lockWinData(h)
	if data == nil {
		if data = d.createWinData(h, windowRect, clientRect, visibleRect); data == nil {
			return false
		}
	}

	// Child windows use the default path unless they need a surface of
	// their own.
	needs := true
	if parent := d.wm.Parent(h); parent != 0 && parent != d.wm.DesktopWindow() {
		needs = d.needsSurface(data, d.topParent(data))
	}

	d.releaseWinData(data)
	return needs
}

// WindowPosChanged applies a window's final geometry after a position
// change, re-evaluates its surface, and synchronizes state with the
// compositor. target, which may be nil, becomes the window's
// presentation target; a previously bound target is detached.
func (d *Driver) WindowPosChanged(h, insertAfter winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle, target PresentTarget) {
	d.log.Debug("position changed",
		"hwnd", h, "after", insertAfter, "flags", uint32(flags),
		"window", windowRect, "client", clientRect, "visible", visibleRect)

	// The managed heuristics take the registry lock for other windows,
	// so they run before this window's record is locked.
	managed := d.isWindowManaged(h, flags, windowRect)

	data := d.lockWinData(h)
	if data == nil {
		return
	}

	data.windowRect = windowRect
	data.clientRect = clientRect
	data.visibleRect = visibleRect
	data.managed = managed

	if data.target != nil && data.target != target {
		data.target.SetOutput(nil, image.Rectangle{})
	}
	data.target = target

	d.updateSurface(data, 0)
	if data.surface != nil {
		d.updateRemoteState(data)
	}

	d.releaseWinData(data)
	d.comp.Flush()
}

// WindowMessage handles driver-internal messages posted to h. It reports
// whether the message was one of the driver's own.
func (d *Driver) WindowMessage(h winuser.Handle, msg uint32, wp, lp uintptr) bool {
	switch msg {
	case MsgDisplayChanged:
		d.wm.NotifyDisplayChange()
	case MsgConfigure:
		d.configureWindow(h)
		d.comp.Flush()
	case MsgForeground:
		d.wm.SetForegroundWindow(h)
	default:
		d.log.Warn("unexpected window message", "hwnd", h, "msg", msg, "wp", wp, "lp", lp)
		return false
	}
	return true
}

// DesktopWindowMessage handles messages sent to the desktop window. The
// driver takes no action of its own; the window manager's default
// handling applies.
func (d *Driver) DesktopWindowMessage(h winuser.Handle, msg uint32, wp, lp uintptr) bool {
	return false
}

// SetWindowText pushes a window's new title to its toplevel surface.
func (d *Driver) SetWindowText(h winuser.Handle, text string) {
	surface := d.LockSurface(h)
	if surface == nil {
		return
	}

	d.log.Debug("title changed", "hwnd", h, "text", text)

	if surface.active == RoleToplevel {
		surface.setTitle(text)
	}
	surface.Unlock()
	d.comp.Flush()
}

// SysCommand hands interactive move and resize commands over to the
// compositor, which owns the pointer during such gestures. It reports
// whether the command was taken; unhandled commands stay with the window
// manager's own tracking.
func (d *Driver) SysCommand(h winuser.Handle, wparam, lparam uintptr) bool {
	command := wparam & winuser.SCMask
	handled := false

	d.log.Debug("system command", "hwnd", h, "cmd", command)

	if command == winuser.SCMove || command == winuser.SCSize {
		serial, focused := d.comp.GrabSerial(h)
		if surface := d.LockSurface(h); surface != nil {
			if surface.active == RoleToplevel && focused && serial != 0 {
				if command == winuser.SCMove {
					surface.remote.Move(serial)
				} else {
					surface.remote.Resize(serial, resizeEdgeForHittest(wparam&0x0f))
				}
			}
			surface.Unlock()
			handled = true
		}
	}

	d.comp.Flush()
	return handled
}

func resizeEdgeForHittest(hittest uintptr) ResizeEdge {
	switch hittest {
	case winuser.HitLeft:
		return EdgeLeft
	case winuser.HitRight:
		return EdgeRight
	case winuser.HitTop:
		return EdgeTop
	case winuser.HitTopLeft:
		return EdgeTopLeft
	case winuser.HitTopRight:
		return EdgeTopRight
	case winuser.HitBottom:
		return EdgeBottom
	case winuser.HitBottomLeft:
		return EdgeBottomLeft
	case winuser.HitBottomRight:
		return EdgeBottomRight
	default:
		return EdgeNone
	}
}

// FlushWindow presents any pending pixels of h's presentation target.
func (d *Driver) FlushWindow(h winuser.Handle) {
	data := d.lockWinData(h)
	if data == nil {
		return
	}
	target := data.target
	d.releaseWinData(data)

	// The target tolerates racing detachment; flushing it outside the
	// registry lock keeps protocol I/O off the shared path.
	if target != nil {
		target.Flush()
	}
}

// LockSurface returns h's surface with its lock held, or nil when the
// window has none. The registry lock is dropped before returning, so the
// caller holds only the surface lock; release it with Unlock.
func (d *Driver) LockSurface(h winuser.Handle) *Surface {
	data := d.lockWinData(h)
	if data == nil {
		return nil
	}
	surface := data.surface
	if surface != nil {
		surface.mu.Lock()
	}
	d.releaseWinData(data)
	return surface
}

// LockAccelSurface returns h's surface for accelerated presentation,
// creating one on demand for child windows that can anchor to a
// top-level ancestor. Release the result with Unlock.
func (d *Driver) LockAccelSurface(h winuser.Handle) *Surface {
	data := d.lockWinData(h)
	if data == nil {
		return nil
	}

	if data.surface == nil && d.topParent(data) != nil {
		d.updateSurface(data, forceCreate)
		if data.surface != nil {
			d.updateRemoteState(data)
		}
	}

	surface := data.surface
	if surface != nil {
		surface.mu.Lock()
	}
	d.releaseWinData(data)
	return surface
}
