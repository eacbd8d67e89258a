// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"github.com/Packset/affinity-wine/winuser"
)

type updateFlags uint

const (
	// forceRoleUpdate re-applies the role even when it looks unchanged.
	// Needed after an anchor's surface identity changed, which a child
	// cannot detect on its own.
	forceRoleUpdate updateFlags = 1 << iota

	// forceCreate creates a surface even for windows that would not
	// normally need one.
	forceCreate

	// skipChildren suppresses the descendant sweep, bounding the
	// propagation fan-out to one level.
	skipChildren
)

// needsSurface reports whether a window must own a protocol surface.
// Top-level windows always do. Child windows only while accelerated
// content is attached to them or to their anchor ancestor, so that
// content never vanishes mid-presentation and siblings stay
// compositable. The registry lock must be held.
func (d *Driver) needsSurface(data, parentData *windowData) bool {
	parent := d.wm.Parent(data.handle)
	if parent == 0 || parent == d.wm.DesktopWindow() {
		return true
	}
	if data.surface != nil && data.surface.hasClient() {
		return true
	}
	if parentData != nil && parentData.surface != nil && parentData.surface.hasClient() {
		return true
	}
	return false
}

// windowConfigFor derives the surface-facing view of a window's current
// geometry and state. The registry lock must be held.
func (d *Driver) windowConfigFor(data, parentData *windowData) windowConfig {
	style := d.wm.Style(data.handle)
	dpi := d.wm.DPIForWindow(data.handle)

	conf := windowConfig{
		rect:       data.windowRect,
		clientRect: data.clientRect,
		scale:      float64(dpi) / 96,
		visible:    style&winuser.StyleVisible != 0,
		managed:    data.managed,
	}

	// Fullscreen is implied by position and style rather than tracked
	// as its own bit on the window.
	if d.wm.IsRectFullScreen(conf.rect, dpi) {
		if style&winuser.StyleMaximize != 0 && style&winuser.StyleCaption == winuser.StyleCaption {
			conf.state |= StateMaximized
		} else if style&winuser.StyleMinimize == 0 {
			conf.state |= StateFullscreen
		}
	} else if style&winuser.StyleMaximize != 0 {
		conf.state |= StateMaximized
	}

	if parentData != nil {
		conf.relative = data.windowRect.Min.Sub(parentData.windowRect.Min)
	}

	d.log.Debug("window config",
		"hwnd", data.handle, "rect", conf.rect, "state", uint32(conf.state),
		"scale", conf.scale, "visible", conf.visible, "managed", conf.managed)

	return conf
}

// updateSurface re-evaluates the protocol surface a window should own,
// transitions it, and refreshes descendants whose anchor it is. The
// registry lock must be held.
func (d *Driver) updateSurface(data *windowData, flags updateFlags) {
	surfaceChanged := d.transitionSurface(data, flags)

	if flags&skipChildren != 0 {
		return
	}

	// Refresh child window surfaces without allowing recursive fan-out.
	// A swapped surface is invisible to children comparing anchors by
	// handle, so force their role check when the identity changed.
	childFlags := skipChildren
	if surfaceChanged {
		childFlags |= forceRoleUpdate
	}
	for _, h := range d.sortedHandles() {
		wwd := d.windows[h]
		if wwd.surface != nil && d.wm.IsChild(data.handle, wwd.handle) {
			d.transitionSurface(wwd, childFlags)
			if wwd.surface != nil {
				d.updateRemoteState(wwd)
			}
		}
	}
}

// transitionSurface runs the role state machine for one window and
// reports whether the surface identity changed. The registry lock must
// be held.
func (d *Driver) transitionSurface(data *windowData, flags updateFlags) bool {
	surface := data.surface
	var client RemoteClient

	parentData := d.topParent(data)

	d.log.Debug("updating surface",
		"hwnd", data.handle, "flags", uint(flags), "surface", surface != nil)

	// Child windows without presentation content ride on their
	// ancestor's surface.
	if !d.needsSurface(data, parentData) && flags&forceCreate == 0 {
		if surface == nil {
			return false
		}
		if data.target != nil {
			data.target.SetOutput(nil, image.Rectangle{})
		}
		surface.destroy()
		data.surface = nil
		return true
	}

	role := RoleNone
	if d.wm.IsVisible(data.handle) {
		if parentData != nil && parentData.surface != nil {
			role = RoleSubsurface
		} else {
			role = RoleToplevel
		}
	}

	// A role can be removed from a surface and assigned again, but
	// never exchanged in place; swapping takes a fresh surface. The
	// presentation client is detached first so it survives the swap.
	if surface != nil && role != RoleNone && surface.role != RoleNone && role != surface.role {
		if data.target != nil {
			data.target.SetOutput(nil, image.Rectangle{})
		}
		surface.mu.Lock()
		client = surface.takeClient()
		surface.mu.Unlock()
		surface.destroy()
		surface = nil
	}

	surfaceChanged := false
	if surface == nil {
		surface = d.newSurfaceFor(data.handle)
		surfaceChanged = data.surface != nil || surface != nil
		if surface == nil {
			if client != nil {
				client.Destroy()
			}
			data.surface = nil
			return surfaceChanged
		}
	}

	surface.mu.Lock()

	roleNeedsUpdate := (role == RoleToplevel) != (surface.active == RoleToplevel) ||
		(role == RoleSubsurface) != (surface.active == RoleSubsurface) ||
		(role == RoleSubsurface && surface.parent != 0 &&
			parentData != nil && surface.parent != parentData.handle) ||
		flags&forceRoleUpdate != 0

	if roleNeedsUpdate {
		// A pre-existing surface must shed its old role objects first.
		if data.surface != nil {
			surface.clearRole()
		}
		// Visible windows get a role; invisible ones stay role-less
		// rather than polluting the compositor with unused objects.
		switch role {
		case RoleToplevel:
			if err := surface.makeToplevel(); err != nil {
				d.log.Debug("toplevel role not assigned", "hwnd", data.handle, "err", err)
			} else {
				surface.setTitle(d.wm.WindowText(data.handle))
			}
		case RoleSubsurface:
			parentData.surface.mu.Lock()
			err := surface.makeSubsurface(parentData.surface)
			parentData.surface.mu.Unlock()
			if err != nil {
				d.log.Debug("subsurface role not assigned", "hwnd", data.handle, "err", err)
			}
		}
	}

	surface.window = d.windowConfigFor(data, parentData)

	if client != nil {
		if err := surface.attachClient(client); err != nil {
			d.log.Error("presentation client lost", "hwnd", data.handle, "err", err)
		}
	}

	surface.mu.Unlock()

	if data.target != nil {
		data.target.SetOutput(surface, data.visibleRect)
	}

	// Geometry changes move the effective pointer constraint region.
	if data.handle == d.wm.ForegroundWindow() {
		d.wm.ReapplyCursorClip()
	}

	d.log.Debug("updated surface",
		"hwnd", data.handle, "role", surface.active, "changed", surfaceChanged)

	data.surface = surface
	return surfaceChanged
}

// updateRemoteState pushes diverging local window state to the
// compositor, or absorbs an in-flight compositor configure instead. The
// registry lock must be held and data must own a surface.
func (d *Driver) updateRemoteState(data *windowData) {
	surface := data.surface
	surface.mu.Lock()
	defer surface.mu.Unlock()

	switch surface.active {
	case RoleSubsurface:
		// Subsurfaces have no configure mechanism; reuse the
		// negotiation fields to mark them as up to date.
		surface.processing = Configure{Serial: 1}
		surface.processed = true
		return
	case RoleNone:
		return
	}

	if surface.processing.Serial != 0 && !surface.processed {
		// A compositor configure is in flight; its application brought
		// us here. Mark it handled instead of echoing state back.
		surface.processed = true
		return
	}

	d.log.Debug("syncing state",
		"hwnd", data.handle,
		"window", uint32(surface.window.state), "current", uint32(surface.current.State))

	// All unsets go out before any set; some compositors misbehave when
	// the order is reversed.
	if surface.window.state&StateMaximized == 0 && surface.current.State&StateMaximized != 0 {
		surface.remote.UnsetMaximized()
	}
	if surface.window.state&StateFullscreen == 0 && surface.current.State&StateFullscreen != 0 {
		surface.remote.UnsetFullscreen()
	}
	if surface.window.state&StateMaximized != 0 && surface.current.State&StateMaximized == 0 {
		surface.remote.SetMaximized()
	}
	if surface.window.state&StateFullscreen != 0 && surface.current.State&StateFullscreen == 0 {
		surface.remote.SetFullscreen()
	}
}

// newSurfaceFor creates a bare surface for h, or nil when the compositor
// rejects it; the window then stays on the default presentation path.
func (d *Driver) newSurfaceFor(h winuser.Handle) *Surface {
	remote, err := d.comp.NewSurface(h, d)
	if err != nil {
		d.log.Error("surface creation failed", "hwnd", h, "err", err)
		return nil
	}
	return newSurface(h, remote)
}
