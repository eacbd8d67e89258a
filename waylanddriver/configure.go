// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"github.com/Packset/affinity-wine/winuser"
)

// SurfaceConfigured buffers a configuration proposed by the compositor
// and schedules its reconciliation on the window's own event thread.
// Called from the compositor dispatch thread; only the latest
// configuration is kept when several arrive before one is consumed.
func (d *Driver) SurfaceConfigured(h winuser.Handle, conf Configure) {
	surface := d.LockSurface(h)
	if surface == nil {
		return
	}
	surface.requested = conf
	surface.Unlock()

	d.log.Debug("configure received",
		"hwnd", h, "size", conf.Size, "state", uint32(conf.State), "serial", conf.Serial)

	d.wm.Post(h, MsgConfigure)
}

// SurfaceClosed forwards the compositor's close request to the window,
// leaving the application free to ignore it.
func (d *Driver) SurfaceClosed(h winuser.Handle) {
	d.wm.PostCloseRequest(h)
}

// configureWindow reconciles the buffered compositor configuration with
// the window's style and geometry. Runs on the window's event thread in
// response to MsgConfigure, with no locks held around the window manager
// calls it makes.
func (d *Driver) configureWindow(h winuser.Handle) {
	surface := d.LockSurface(h)
	if surface == nil {
		return
	}

	if surface.active != RoleToplevel {
		surface.Unlock()
		return
	}

	if surface.requested.Serial == 0 {
		// Consumed by an earlier dispatch.
		surface.Unlock()
		return
	}

	surface.processing = surface.requested
	surface.requested = Configure{}
	surface.processed = false

	state := surface.processing.State

	// Without a state that demands strict size adherence the hint is
	// advisory only; ignore it to avoid spurious resizes.
	var size image.Point
	if state != 0 {
		size = surface.processing.Size
	}

	needsEnterSizeMove := false
	needsExitSizeMove := false
	if state&StateResizing != 0 && !surface.resizing {
		surface.resizing = true
		needsEnterSizeMove = true
	}
	if state&StateResizing == 0 && surface.resizing {
		surface.resizing = false
		needsExitSizeMove = true
	}

	// Moves between normal, maximized and fullscreen may entail a frame
	// change.
	var flags winuser.SetPosFlags
	if (state^surface.current.State)&(StateMaximized|StateFullscreen) != 0 {
		flags |= winuser.SetPosFrameChanged
	}

	// A fullscreen window whose size already satisfies the compositor
	// keeps it; some applications insist on a particular fullscreen
	// size that need not match the monitor.
	winSurfSize := surface.coordsFromWindow(surface.window.rect.Size())
	if surface.window.state&StateFullscreen != 0 &&
		surface.processing.compatible(winSurfSize, surface.window.state) {
		flags |= winuser.SetPosNoSize
	}

	windowSize := surface.coordsToWindow(size)
	serial := surface.processing.Serial

	surface.Unlock()

	d.log.Debug("processing configure",
		"hwnd", h, "size", windowSize, "state", uint32(state), "serial", serial)

	if needsEnterSizeMove {
		d.wm.EnterSizeMove(h)
	}
	if needsExitSizeMove {
		d.wm.ExitSizeMove(h)
	}

	flags |= winuser.SetPosNoActivate | winuser.SetPosNoZOrder |
		winuser.SetPosNoOwnerZOrder | winuser.SetPosNoMove
	if windowSize.X == 0 || windowSize.Y == 0 {
		flags |= winuser.SetPosNoSize
	}

	style := d.wm.Style(h)
	if (state&StateMaximized != 0) != (style&winuser.StyleMaximize != 0) {
		d.wm.SetStyle(h, style^winuser.StyleMaximize)
	}

	// Maximized and fullscreen sizes are strict, and tiled marks a
	// strong preference; keep the application from overriding any of
	// them.
	if state&(StateMaximized|StateFullscreen|StateTiled) != 0 {
		flags |= winuser.SetPosNoSendChanging
	}

	d.wm.SetWindowPos(h, 0, image.Rectangle{Max: windowSize}, flags)
}
