// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xdgshell

import (
	"sync"
)

// Error constants for xdg_wm_base
const (
	WmBaseErrorRole uint32 = iota
	WmBaseErrorDefunctSurfaces
	WmBaseErrorNotTheTopmostPopup
	WmBaseErrorInvalidPopupParent
	WmBaseErrorInvalidSurfaceState
	WmBaseErrorInvalidPositioner
	WmBaseErrorUnresponsive
)

// Protocol request/event constants for xdg_wm_base
const (
	WmBaseRequestDestroy uint32 = iota
	WmBaseRequestCreatePositioner
	WmBaseRequestGetXdgSurface
	WmBaseRequestPong
)

const (
	WmBaseEventPing uint32 = iota
)

// Protocol request/event constants for xdg_surface
const (
	SurfaceRequestDestroy uint32 = iota
	SurfaceRequestGetToplevel
	SurfaceRequestGetPopup
	SurfaceRequestSetWindowGeometry
	SurfaceRequestAckConfigure
)

const (
	SurfaceEventConfigure uint32 = iota
)

// Protocol request/event constants for xdg_toplevel
const (
	ToplevelRequestDestroy uint32 = iota
	ToplevelRequestSetParent
	ToplevelRequestSetTitle
	ToplevelRequestSetAppId
	ToplevelRequestShowWindowMenu
	ToplevelRequestMove
	ToplevelRequestResize
	ToplevelRequestSetMaxSize
	ToplevelRequestSetMinSize
	ToplevelRequestSetMaximized
	ToplevelRequestUnsetMaximized
	ToplevelRequestSetFullscreen
	ToplevelRequestUnsetFullscreen
	ToplevelRequestSetMinimized
)

const (
	ToplevelEventConfigure uint32 = iota
	ToplevelEventClose
	ToplevelEventConfigureBounds
	ToplevelEventWmCapabilities
)

// State constants carried by the xdg_toplevel configure event
const (
	ToplevelStateMaximized uint32 = 1 + iota
	ToplevelStateFullscreen
	ToplevelStateResizing
	ToplevelStateActivated
	ToplevelStateTiledLeft
	ToplevelStateTiledRight
	ToplevelStateTiledTop
	ToplevelStateTiledBottom
)

// Edge constants accepted by the xdg_toplevel resize request
const (
	ToplevelResizeEdgeNone        uint32 = 0
	ToplevelResizeEdgeTop         uint32 = 1
	ToplevelResizeEdgeBottom      uint32 = 2
	ToplevelResizeEdgeLeft        uint32 = 4
	ToplevelResizeEdgeTopLeft     uint32 = 5
	ToplevelResizeEdgeBottomLeft  uint32 = 6
	ToplevelResizeEdgeRight       uint32 = 8
	ToplevelResizeEdgeTopRight    uint32 = 9
	ToplevelResizeEdgeBottomRight uint32 = 10
)

// WmBase represents an xdg_wm_base object
type WmBase struct {
	BaseProxy
	mu                sync.RWMutex
	privateWmBasePing []WmBasePingHandler
}

// NewWmBase is a constructor for the WmBase object
func NewWmBase(ctx *Context) *WmBase {
	ret := new(WmBase)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the wm_base object
func (b *WmBase) Destroy() error {
	return b.Context().SendRequest(b, WmBaseRequestDestroy)
}

// GetXdgSurface creates an xdg_surface for a given wl_surface
func (b *WmBase) GetXdgSurface(surface *WlSurface) (*Surface, error) {
	retId := NewSurface(b.Context())
	return retId, b.Context().SendRequest(b, WmBaseRequestGetXdgSurface, retId, surface)
}

// Pong responds to a ping event
func (b *WmBase) Pong(serial uint32) error {
	return b.Context().SendRequest(b, WmBaseRequestPong, serial)
}

// Dispatch dispatches event for WmBase
func (b *WmBase) Dispatch(event *Event) {
	switch event.Opcode {
	case WmBaseEventPing:
		if len(b.privateWmBasePing) > 0 {
			ev := WmBasePingEvent{}
			ev.Serial = event.Uint32()
			b.mu.RLock()
			for _, h := range b.privateWmBasePing {
				h.HandleWmBasePing(ev)
			}
			b.mu.RUnlock()
		}
	}
}

// WmBasePingEvent represents the ping event
type WmBasePingEvent struct {
	Serial uint32
}

// WmBasePingHandler is the handler interface for WmBasePingEvent
type WmBasePingHandler interface {
	HandleWmBasePing(WmBasePingEvent)
}

// AddPingHandler adds the Ping handler
func (b *WmBase) AddPingHandler(h WmBasePingHandler) {
	if h != nil {
		b.mu.Lock()
		b.privateWmBasePing = append(b.privateWmBasePing, h)
		b.mu.Unlock()
	}
}

// RemovePingHandler removes the Ping handler
func (b *WmBase) RemovePingHandler(h WmBasePingHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.privateWmBasePing {
		if e == h {
			b.privateWmBasePing = append(b.privateWmBasePing[:i], b.privateWmBasePing[i+1:]...)
			break
		}
	}
}

// Surface represents an xdg_surface object
type Surface struct {
	BaseProxy
	mu                      sync.RWMutex
	privateSurfaceConfigure []SurfaceConfigureHandler
}

// NewSurface is a constructor for the Surface object
func NewSurface(ctx *Context) *Surface {
	ret := new(Surface)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the xdg_surface object
func (s *Surface) Destroy() error {
	return s.Context().SendRequest(s, SurfaceRequestDestroy)
}

// GetToplevel assigns the toplevel role to the xdg_surface
func (s *Surface) GetToplevel() (*Toplevel, error) {
	retId := NewToplevel(s.Context())
	return retId, s.Context().SendRequest(s, SurfaceRequestGetToplevel, retId)
}

// SetWindowGeometry sets the window geometry in surface-local coordinates
func (s *Surface) SetWindowGeometry(x, y, width, height int32) error {
	return s.Context().SendRequest(s, SurfaceRequestSetWindowGeometry, x, y, width, height)
}

// AckConfigure acknowledges a configure event
func (s *Surface) AckConfigure(serial uint32) error {
	return s.Context().SendRequest(s, SurfaceRequestAckConfigure, serial)
}

// Dispatch dispatches event for Surface
func (s *Surface) Dispatch(event *Event) {
	switch event.Opcode {
	case SurfaceEventConfigure:
		if len(s.privateSurfaceConfigure) > 0 {
			ev := SurfaceConfigureEvent{}
			ev.Serial = event.Uint32()
			s.mu.RLock()
			for _, h := range s.privateSurfaceConfigure {
				h.HandleSurfaceConfigure(ev)
			}
			s.mu.RUnlock()
		}
	}
}

// SurfaceConfigureEvent represents the configure event
type SurfaceConfigureEvent struct {
	Serial uint32
}

// SurfaceConfigureHandler is the handler interface for SurfaceConfigureEvent
type SurfaceConfigureHandler interface {
	HandleSurfaceConfigure(SurfaceConfigureEvent)
}

// AddConfigureHandler adds the Configure handler
func (s *Surface) AddConfigureHandler(h SurfaceConfigureHandler) {
	if h != nil {
		s.mu.Lock()
		s.privateSurfaceConfigure = append(s.privateSurfaceConfigure, h)
		s.mu.Unlock()
	}
}

// RemoveConfigureHandler removes the Configure handler
func (s *Surface) RemoveConfigureHandler(h SurfaceConfigureHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.privateSurfaceConfigure {
		if e == h {
			s.privateSurfaceConfigure = append(s.privateSurfaceConfigure[:i], s.privateSurfaceConfigure[i+1:]...)
			break
		}
	}
}

// Toplevel represents an xdg_toplevel object
type Toplevel struct {
	BaseProxy
	mu                       sync.RWMutex
	privateToplevelConfigure []ToplevelConfigureHandler
	privateToplevelClose     []ToplevelCloseHandler
}

// NewToplevel is a constructor for the Toplevel object
func NewToplevel(ctx *Context) *Toplevel {
	ret := new(Toplevel)
	ctx.Register(ret)
	return ret
}

// Destroy destroys the xdg_toplevel object
func (t *Toplevel) Destroy() error {
	return t.Context().SendRequest(t, ToplevelRequestDestroy)
}

// SetParent sets another toplevel as the parent of this one. A nil
// parent unsets the current parent.
func (t *Toplevel) SetParent(parent *Toplevel) error {
	if parent == nil {
		return t.Context().SendRequest(t, ToplevelRequestSetParent, uint32(0))
	}
	return t.Context().SendRequest(t, ToplevelRequestSetParent, parent)
}

// SetTitle sets the toplevel title
func (t *Toplevel) SetTitle(title string) error {
	return t.Context().SendRequest(t, ToplevelRequestSetTitle, title)
}

// SetAppId sets the application identifier
func (t *Toplevel) SetAppId(appId string) error {
	return t.Context().SendRequest(t, ToplevelRequestSetAppId, appId)
}

// ShowWindowMenu asks the compositor to show the window menu
func (t *Toplevel) ShowWindowMenu(seat *WlSeat, serial uint32, x, y int32) error {
	return t.Context().SendRequest(t, ToplevelRequestShowWindowMenu, seat, serial, x, y)
}

// Move starts a compositor-driven interactive move. The serial must
// come from an input event, such as a pointer button press.
func (t *Toplevel) Move(seat *WlSeat, serial uint32) error {
	return t.Context().SendRequest(t, ToplevelRequestMove, seat, serial)
}

// Resize starts a compositor-driven interactive resize from the
// given edge or corner
func (t *Toplevel) Resize(seat *WlSeat, serial uint32, edges uint32) error {
	return t.Context().SendRequest(t, ToplevelRequestResize, seat, serial, edges)
}

// SetMaxSize sets the maximum toplevel size
func (t *Toplevel) SetMaxSize(width, height int32) error {
	return t.Context().SendRequest(t, ToplevelRequestSetMaxSize, width, height)
}

// SetMinSize sets the minimum toplevel size
func (t *Toplevel) SetMinSize(width, height int32) error {
	return t.Context().SendRequest(t, ToplevelRequestSetMinSize, width, height)
}

// SetMaximized asks the compositor to maximize the toplevel
func (t *Toplevel) SetMaximized() error {
	return t.Context().SendRequest(t, ToplevelRequestSetMaximized)
}

// UnsetMaximized asks the compositor to unmaximize the toplevel
func (t *Toplevel) UnsetMaximized() error {
	return t.Context().SendRequest(t, ToplevelRequestUnsetMaximized)
}

// SetFullscreen asks the compositor to make the toplevel fullscreen.
// A nil output lets the compositor choose the output.
func (t *Toplevel) SetFullscreen(output *WlOutput) error {
	if output == nil {
		return t.Context().SendRequest(t, ToplevelRequestSetFullscreen, uint32(0))
	}
	return t.Context().SendRequest(t, ToplevelRequestSetFullscreen, output)
}

// UnsetFullscreen asks the compositor to leave fullscreen
func (t *Toplevel) UnsetFullscreen() error {
	return t.Context().SendRequest(t, ToplevelRequestUnsetFullscreen)
}

// SetMinimized asks the compositor to minimize the toplevel
func (t *Toplevel) SetMinimized() error {
	return t.Context().SendRequest(t, ToplevelRequestSetMinimized)
}

// Dispatch dispatches event for Toplevel
func (t *Toplevel) Dispatch(event *Event) {
	switch event.Opcode {
	case ToplevelEventConfigure:
		if len(t.privateToplevelConfigure) > 0 {
			ev := ToplevelConfigureEvent{}
			ev.Width = int32(event.Uint32())
			ev.Height = int32(event.Uint32())
			// The states array arrives as a byte count followed by
			// packed uint32 values.
			n := int(event.Uint32()) / 4
			ev.States = make([]uint32, 0, n)
			for i := 0; i < n; i++ {
				ev.States = append(ev.States, event.Uint32())
			}
			t.mu.RLock()
			for _, h := range t.privateToplevelConfigure {
				h.HandleToplevelConfigure(ev)
			}
			t.mu.RUnlock()
		}
	case ToplevelEventClose:
		if len(t.privateToplevelClose) > 0 {
			ev := ToplevelCloseEvent{}
			t.mu.RLock()
			for _, h := range t.privateToplevelClose {
				h.HandleToplevelClose(ev)
			}
			t.mu.RUnlock()
		}
	}
}

// ToplevelConfigureEvent represents the configure event
type ToplevelConfigureEvent struct {
	Width  int32
	Height int32
	States []uint32
}

// ToplevelCloseEvent represents the close event
type ToplevelCloseEvent struct {
}

// ToplevelConfigureHandler is the handler interface for ToplevelConfigureEvent
type ToplevelConfigureHandler interface {
	HandleToplevelConfigure(ToplevelConfigureEvent)
}

// AddConfigureHandler adds the Configure handler
func (t *Toplevel) AddConfigureHandler(h ToplevelConfigureHandler) {
	if h != nil {
		t.mu.Lock()
		t.privateToplevelConfigure = append(t.privateToplevelConfigure, h)
		t.mu.Unlock()
	}
}

// RemoveConfigureHandler removes the Configure handler
func (t *Toplevel) RemoveConfigureHandler(h ToplevelConfigureHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.privateToplevelConfigure {
		if e == h {
			t.privateToplevelConfigure = append(t.privateToplevelConfigure[:i], t.privateToplevelConfigure[i+1:]...)
			break
		}
	}
}

// ToplevelCloseHandler is the handler interface for ToplevelCloseEvent
type ToplevelCloseHandler interface {
	HandleToplevelClose(ToplevelCloseEvent)
}

// AddCloseHandler adds the Close handler
func (t *Toplevel) AddCloseHandler(h ToplevelCloseHandler) {
	if h != nil {
		t.mu.Lock()
		t.privateToplevelClose = append(t.privateToplevelClose, h)
		t.mu.Unlock()
	}
}

// RemoveCloseHandler removes the Close handler
func (t *Toplevel) RemoveCloseHandler(h ToplevelCloseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.privateToplevelClose {
		if e == h {
			t.privateToplevelClose = append(t.privateToplevelClose[:i], t.privateToplevelClose[i+1:]...)
			break
		}
	}
}
