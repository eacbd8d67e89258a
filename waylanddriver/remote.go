// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"image"

	"github.com/Packset/affinity-wine/winuser"
)

// Role is the protocol role of a surface. A concrete role can be removed
// from a surface and assigned again, but never exchanged for another in
// place; swapping roles requires destroying the protocol object and
// creating a fresh one.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RoleSubsurface
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleToplevel:
		return "toplevel"
	case RoleSubsurface:
		return "subsurface"
	}
	return "unknown"
}

// ConfigState holds the state bits of a surface configuration.
type ConfigState uint32

const (
	StateMaximized ConfigState = 1 << iota
	StateResizing
	StateTiled
	StateFullscreen
)

// Configure is one configuration of a surface: a size in surface
// coordinates, state bits, and the serial under which the compositor
// expects an acknowledgement. A zero Serial means "no configuration".
type Configure struct {
	Size   image.Point
	State  ConfigState
	Serial uint32
}

// ResizeEdge names the window edge an interactive resize grabs.
type ResizeEdge uint32

const (
	EdgeNone        ResizeEdge = 0
	EdgeTop         ResizeEdge = 1
	EdgeBottom      ResizeEdge = 2
	EdgeLeft        ResizeEdge = 4
	EdgeTopLeft     ResizeEdge = 5
	EdgeBottomLeft  ResizeEdge = 6
	EdgeRight       ResizeEdge = 8
	EdgeTopRight    ResizeEdge = 9
	EdgeBottomRight ResizeEdge = 10
)

// SurfaceEvents receives events a Compositor dispatches for a surface.
// Calls arrive on the compositor's dispatch thread and must not block on
// work scheduled for the window's own event thread.
type SurfaceEvents interface {
	// SurfaceConfigured delivers a configuration proposed by the
	// compositor for the window's surface.
	SurfaceConfigured(h winuser.Handle, conf Configure)

	// SurfaceClosed delivers the compositor's request to close the
	// window.
	SurfaceClosed(h winuser.Handle)
}

// Compositor is the display server connection as seen by the driver.
// Conn implements it over a live Wayland connection; tests substitute
// recording fakes.
type Compositor interface {
	// NewSurface creates a bare, role-less surface for h. Events for
	// the surface are dispatched to events until the surface is
	// destroyed.
	NewSurface(h winuser.Handle, events SurfaceEvents) (RemoteSurface, error)

	// GrabSerial returns the serial of the last pointer button press
	// and whether h currently holds the pointer focus. Interactive
	// move and resize requests are only honored with a fresh serial.
	GrabSerial(h winuser.Handle) (serial uint32, focused bool)

	// Flush writes any buffered protocol requests to the connection.
	Flush()
}

// RemoteSurface is one protocol surface object bundle. All methods issue
// protocol requests; none of them wait for replies. Methods must only be
// called while holding the lock of the Surface owning the object.
type RemoteSurface interface {
	// MakeToplevel assigns the toplevel role.
	MakeToplevel() error

	// MakeSubsurface assigns the subsurface role, anchored to parent.
	MakeSubsurface(parent RemoteSurface) error

	// ClearRole destroys the current role objects, leaving a bare
	// surface a new role may be assigned to.
	ClearRole()

	// Destroy releases every protocol object of the surface. No method
	// may be called afterwards.
	Destroy()

	// SetTitle sets the toplevel title.
	SetTitle(title string)

	// State requests. Unsets must be issued before sets when both are
	// pending; some compositors misbehave otherwise.
	SetMaximized()
	UnsetMaximized()
	SetFullscreen()
	UnsetFullscreen()

	// Move starts an interactive move using the pointer grab serial.
	Move(serial uint32)

	// Resize starts an interactive resize from the given edge.
	Resize(serial uint32, edge ResizeEdge)

	// AckConfigure acknowledges the configuration with the given
	// serial as applied.
	AckConfigure(serial uint32)

	// SetWindowGeometry declares which part of the surface is the
	// window, in surface coordinates.
	SetWindowGeometry(r image.Rectangle)

	// SetPosition places a subsurface relative to its anchor's origin,
	// in surface coordinates.
	SetPosition(p image.Point)

	// NewClient creates an accelerated presentation client attached to
	// this surface.
	NewClient() (RemoteClient, error)
}

// RemoteClient is an accelerated presentation sink. It outlives the
// surface it was created for and can be re-attached when a role change
// replaces the underlying protocol object.
type RemoteClient interface {
	// AttachTo anchors the client's content under parent.
	AttachTo(parent RemoteSurface) error

	// Detach unparents the content, keeping it alive for a later
	// AttachTo.
	Detach()

	// Destroy releases the client's protocol objects.
	Destroy()
}

// PresentTarget is a pixel presentation sink bound to a window. The
// driver points it at the window's current surface; the presentation
// layer owns it and commits pixels through it.
//
// Implementations must tolerate Flush with no output attached.
type PresentTarget interface {
	// SetOutput binds the target to a surface, or detaches it when s is
	// nil. visible is the on-screen extent of the window's content in
	// the window manager's coordinate space.
	SetOutput(s *Surface, visible image.Rectangle)

	// Flush presents any pending pixels to the bound surface.
	Flush()
}
