// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"fmt"
	"image"
	"sync"

	"github.com/neurlang/wayland/wl"

	"github.com/Packset/affinity-wine/winuser"
	"github.com/Packset/affinity-wine/xdgshell"
)

// wl_surface request opcodes used directly where the generated bindings
// cannot express a null object argument.
const surfaceRequestAttach = 1

// remoteSurface implements RemoteSurface over one wl_surface and the
// role objects currently assigned to it.
//
// All methods run on window manager threads, serialized by the owning
// Surface's lock. The exception is the role listener, which runs on the
// dispatch thread and takes omu to tell events of the live role objects
// from events of defunct ones.
type remoteSurface struct {
	conn   *Conn
	handle winuser.Handle
	events SurfaceEvents

	surface *wl.Surface

	omu        sync.Mutex
	xdg        *xdgshell.Surface
	toplevel   *xdgshell.Toplevel
	subsurface *wl.Subsurface

	// pending accumulates xdg_toplevel configure fields until the
	// xdg_surface configure event seals them under a serial. Dispatch
	// thread only.
	pendingSize  image.Point
	pendingState ConfigState
}

// roleListener forwards configure and close events for one role
// assignment. A fresh listener is registered per assignment, so events
// still in flight for a destroyed role object no longer match the
// surface's current objects and get dropped.
type roleListener struct {
	r   *remoteSurface
	xdg *xdgshell.Surface
	top *xdgshell.Toplevel
}

func (l *roleListener) live() bool {
	l.r.omu.Lock()
	defer l.r.omu.Unlock()
	return l.r.xdg == l.xdg && l.r.toplevel == l.top
}

// HandleToplevelConfigure implements xdgshell.ToplevelConfigureHandler.
func (l *roleListener) HandleToplevelConfigure(e xdgshell.ToplevelConfigureEvent) {
	if !l.live() {
		return
	}
	l.r.pendingSize = image.Pt(int(e.Width), int(e.Height))
	l.r.pendingState = configStateFromToplevel(e.States)
}

// HandleSurfaceConfigure implements xdgshell.SurfaceConfigureHandler,
// sealing the accumulated toplevel fields under the event's serial.
func (l *roleListener) HandleSurfaceConfigure(e xdgshell.SurfaceConfigureEvent) {
	if !l.live() {
		return
	}
	conf := Configure{
		Size:   l.r.pendingSize,
		State:  l.r.pendingState,
		Serial: e.Serial,
	}
	l.r.pendingSize = image.Point{}
	l.r.pendingState = 0
	l.r.events.SurfaceConfigured(l.r.handle, conf)
}

// HandleToplevelClose implements xdgshell.ToplevelCloseHandler.
func (l *roleListener) HandleToplevelClose(e xdgshell.ToplevelCloseEvent) {
	if !l.live() {
		return
	}
	l.r.events.SurfaceClosed(l.r.handle)
}

// configStateFromToplevel folds the xdg_toplevel state array into state
// bits. Activation is the window manager's business and is not tracked.
func configStateFromToplevel(states []uint32) ConfigState {
	var st ConfigState
	for _, s := range states {
		switch s {
		case xdgshell.ToplevelStateMaximized:
			st |= StateMaximized
		case xdgshell.ToplevelStateFullscreen:
			st |= StateFullscreen
		case xdgshell.ToplevelStateResizing:
			st |= StateResizing
		case xdgshell.ToplevelStateTiledLeft,
			xdgshell.ToplevelStateTiledRight,
			xdgshell.ToplevelStateTiledTop,
			xdgshell.ToplevelStateTiledBottom:
			st |= StateTiled
		}
	}
	return st
}

// MakeToplevel implements RemoteSurface.
func (r *remoteSurface) MakeToplevel() error {
	xdg, err := r.conn.wmBase.GetXdgSurface(r.surface)
	if err != nil {
		return fmt.Errorf("waylanddriver: get xdg_surface: %w", err)
	}
	toplevel, err := xdg.GetToplevel()
	if err != nil {
		r.logErr("xdg_surface destroy", xdg.Destroy())
		return fmt.Errorf("waylanddriver: get xdg_toplevel: %w", err)
	}
	listener := &roleListener{r: r, xdg: xdg, top: toplevel}
	xdg.AddConfigureHandler(listener)
	toplevel.AddConfigureHandler(listener)
	toplevel.AddCloseHandler(listener)
	r.logErr("set_app_id", toplevel.SetAppId(r.conn.appID))

	r.omu.Lock()
	r.xdg, r.toplevel = xdg, toplevel
	r.omu.Unlock()

	// An unmapped commit prompts the compositor to send the initial
	// configure for the new role.
	r.logErr("commit", r.surface.Commit())
	return nil
}

// MakeSubsurface implements RemoteSurface.
func (r *remoteSurface) MakeSubsurface(parent RemoteSurface) error {
	p, ok := parent.(*remoteSurface)
	if !ok {
		return fmt.Errorf("waylanddriver: foreign anchor surface %T", parent)
	}
	subsurface, err := r.conn.subcompositor.GetSubsurface(r.surface, p.surface)
	if err != nil {
		return fmt.Errorf("waylanddriver: get subsurface: %w", err)
	}
	// Desynced, so the window presents on its own commits instead of
	// its ancestor's.
	if err := subsurface.SetDesync(); err != nil {
		r.logErr("subsurface destroy", subsurface.Destroy())
		return fmt.Errorf("waylanddriver: subsurface set_desync: %w", err)
	}
	r.omu.Lock()
	r.subsurface = subsurface
	r.omu.Unlock()
	return nil
}

// ClearRole implements RemoteSurface.
func (r *remoteSurface) ClearRole() {
	r.omu.Lock()
	xdg, toplevel, subsurface := r.xdg, r.toplevel, r.subsurface
	r.xdg, r.toplevel, r.subsurface = nil, nil, nil
	r.omu.Unlock()

	if toplevel != nil {
		r.logErr("xdg_toplevel destroy", toplevel.Destroy())
	}
	if xdg != nil {
		r.logErr("xdg_surface destroy", xdg.Destroy())
	}
	if subsurface != nil {
		r.logErr("subsurface destroy", subsurface.Destroy())
	}

	// Unmap, so the next role assignment starts from a bare surface.
	r.detachBuffer()
	r.logErr("commit", r.surface.Commit())
}

// Destroy implements RemoteSurface.
func (r *remoteSurface) Destroy() {
	r.ClearRole()
	r.conn.disownSurface(r.surface)
	r.logErr("surface destroy", r.surface.Destroy())
}

// SetTitle implements RemoteSurface.
func (r *remoteSurface) SetTitle(title string) {
	if toplevel := r.roleToplevel(); toplevel != nil {
		r.logErr("set_title", toplevel.SetTitle(title))
	}
}

// SetMaximized implements RemoteSurface.
func (r *remoteSurface) SetMaximized() {
	if toplevel := r.roleToplevel(); toplevel != nil {
		r.logErr("set_maximized", toplevel.SetMaximized())
	}
}

// UnsetMaximized implements RemoteSurface.
func (r *remoteSurface) UnsetMaximized() {
	if toplevel := r.roleToplevel(); toplevel != nil {
		r.logErr("unset_maximized", toplevel.UnsetMaximized())
	}
}

// SetFullscreen implements RemoteSurface.
func (r *remoteSurface) SetFullscreen() {
	if toplevel := r.roleToplevel(); toplevel != nil {
		r.logErr("set_fullscreen", toplevel.SetFullscreen(nil))
	}
}

// UnsetFullscreen implements RemoteSurface.
func (r *remoteSurface) UnsetFullscreen() {
	if toplevel := r.roleToplevel(); toplevel != nil {
		r.logErr("unset_fullscreen", toplevel.UnsetFullscreen())
	}
}

// Move implements RemoteSurface.
func (r *remoteSurface) Move(serial uint32) {
	toplevel := r.roleToplevel()
	seat := r.conn.currentSeat()
	if toplevel == nil || seat == nil {
		return
	}
	r.logErr("move", toplevel.Move(seat, serial))
}

// Resize implements RemoteSurface.
func (r *remoteSurface) Resize(serial uint32, edge ResizeEdge) {
	toplevel := r.roleToplevel()
	seat := r.conn.currentSeat()
	if toplevel == nil || seat == nil {
		return
	}
	r.logErr("resize", toplevel.Resize(seat, serial, uint32(edge)))
}

// AckConfigure implements RemoteSurface.
func (r *remoteSurface) AckConfigure(serial uint32) {
	if xdg := r.roleXdg(); xdg != nil {
		r.logErr("ack_configure", xdg.AckConfigure(serial))
	}
}

// SetWindowGeometry implements RemoteSurface.
func (r *remoteSurface) SetWindowGeometry(rect image.Rectangle) {
	if xdg := r.roleXdg(); xdg != nil {
		r.logErr("set_window_geometry", xdg.SetWindowGeometry(
			int32(rect.Min.X), int32(rect.Min.Y),
			int32(rect.Dx()), int32(rect.Dy())))
	}
}

// SetPosition implements RemoteSurface.
func (r *remoteSurface) SetPosition(p image.Point) {
	r.omu.Lock()
	subsurface := r.subsurface
	r.omu.Unlock()
	if subsurface != nil {
		r.logErr("subsurface set_position", subsurface.SetPosition(int32(p.X), int32(p.Y)))
	}
}

// NewClient implements RemoteSurface.
func (r *remoteSurface) NewClient() (RemoteClient, error) {
	surface, err := r.conn.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("waylanddriver: create client surface: %w", err)
	}
	r.conn.claimSurface(surface, r.handle)
	client := &remoteClient{conn: r.conn, handle: r.handle, surface: surface}
	if err := client.AttachTo(r); err != nil {
		client.Destroy()
		return nil, err
	}
	return client, nil
}

func (r *remoteSurface) roleToplevel() *xdgshell.Toplevel {
	r.omu.Lock()
	defer r.omu.Unlock()
	return r.toplevel
}

func (r *remoteSurface) roleXdg() *xdgshell.Surface {
	r.omu.Lock()
	defer r.omu.Unlock()
	return r.xdg
}

// detachBuffer sends wl_surface.attach with a null buffer. The generated
// Attach cannot marshal a nil proxy, so the request goes out by opcode;
// a null object is its id, zero, on the wire.
func (r *remoteSurface) detachBuffer() {
	err := r.surface.Context().SendRequest(r.surface, surfaceRequestAttach,
		uint32(0), int32(0), int32(0))
	r.logErr("attach", err)
}

// logErr records a failed protocol request. Request writes only fail
// once the connection itself is gone, so this is debug noise rather
// than something to surface.
func (r *remoteSurface) logErr(request string, err error) {
	if err != nil {
		r.conn.log.Debug("request failed", "request", request, "window", r.handle, "error", err)
	}
}

// remoteClient implements RemoteClient: one wl_surface a rendering layer
// may target, anchored under a window surface as a desynced subsurface.
// Methods run on window manager threads serialized by the owning
// Surface's lock.
type remoteClient struct {
	conn   *Conn
	handle winuser.Handle

	surface    *wl.Surface
	subsurface *wl.Subsurface
}

// AttachTo implements RemoteClient.
func (cl *remoteClient) AttachTo(parent RemoteSurface) error {
	p, ok := parent.(*remoteSurface)
	if !ok {
		return fmt.Errorf("waylanddriver: foreign anchor surface %T", parent)
	}
	if cl.subsurface != nil {
		cl.Detach()
	}
	subsurface, err := cl.conn.subcompositor.GetSubsurface(cl.surface, p.surface)
	if err != nil {
		return fmt.Errorf("waylanddriver: attach client surface: %w", err)
	}
	if err := subsurface.SetDesync(); err != nil {
		if derr := subsurface.Destroy(); derr != nil {
			cl.conn.log.Debug("request failed", "request", "subsurface destroy", "error", derr)
		}
		return fmt.Errorf("waylanddriver: client set_desync: %w", err)
	}
	cl.subsurface = subsurface
	return nil
}

// Detach implements RemoteClient.
func (cl *remoteClient) Detach() {
	if cl.subsurface == nil {
		return
	}
	if err := cl.subsurface.Destroy(); err != nil {
		cl.conn.log.Debug("request failed", "request", "subsurface destroy", "error", err)
	}
	cl.subsurface = nil
}

// Destroy implements RemoteClient.
func (cl *remoteClient) Destroy() {
	cl.Detach()
	cl.conn.disownSurface(cl.surface)
	if err := cl.surface.Destroy(); err != nil {
		cl.conn.log.Debug("request failed", "request", "surface destroy", "error", err)
	}
}
