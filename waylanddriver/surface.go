// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"errors"
	"image"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/Packset/affinity-wine/winuser"
)

var errRoleHeld = errors.New("waylanddriver: surface already held another role")

// maxTitleLen caps title text pushed to the compositor; titles travel in
// a single protocol message with a hard length limit.
const maxTitleLen = 1024

// windowConfig is the surface-facing view of a window's geometry and
// state, in the window manager's coordinate space.
type windowConfig struct {
	rect       image.Rectangle
	clientRect image.Rectangle

	// relative is the window origin relative to the anchor ancestor's
	// origin; meaningful only for subsurfaces.
	relative image.Point

	state   ConfigState
	scale   float64
	visible bool
	managed bool
}

// Surface is the driver-side state of one protocol surface.
//
// The surface lock guards every mutable field. It nests inside the
// registry lock; code holding only the surface lock must never reach
// back into the registry. The anchor is therefore kept as a plain handle
// and re-resolved against the registry before each use, since the
// ancestor may be destroyed independently at any time.
type Surface struct {
	handle winuser.Handle

	mu sync.Mutex

	// role is sticky: the role this surface ever had assigned. The
	// protocol permits re-assigning the same role after clearing it,
	// but never a different one; that takes a fresh surface.
	role Role

	// active is the role whose protocol objects are currently alive.
	active Role

	// parent is the anchor ancestor's handle when active is
	// RoleSubsurface, zero otherwise.
	parent winuser.Handle

	// window is the local target state; requested, processing and
	// current are the negotiation phases for compositor configures.
	window     windowConfig
	requested  Configure
	processing Configure
	processed  bool
	current    Configure

	// resizing tracks whether an interactive resize has been announced
	// to the window manager.
	resizing bool

	client RemoteClient
	remote RemoteSurface
}

// newSurface wraps a bare remote surface for h.
func newSurface(h winuser.Handle, remote RemoteSurface) *Surface {
	return &Surface{
		handle: h,
		remote: remote,
		window: windowConfig{scale: 1},
	}
}

// Unlock releases a surface returned by LockSurface or LockAccelSurface.
func (s *Surface) Unlock() {
	s.mu.Unlock()
}

// hasClient reports whether a presentation client is attached.
func (s *Surface) hasClient() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// makeToplevel assigns the toplevel role. The caller must hold the
// surface lock.
func (s *Surface) makeToplevel() error {
	if s.role != RoleNone && s.role != RoleToplevel {
		return errRoleHeld
	}
	if err := s.remote.MakeToplevel(); err != nil {
		return err
	}
	s.role = RoleToplevel
	s.active = RoleToplevel
	s.parent = 0
	return nil
}

// makeSubsurface assigns the subsurface role anchored to parent. The
// caller must hold both surface locks, the anchor's nested inside this
// surface's.
func (s *Surface) makeSubsurface(parent *Surface) error {
	if s.role != RoleNone && s.role != RoleSubsurface {
		return errRoleHeld
	}
	if parent.remote == nil {
		return errors.New("waylanddriver: anchor surface already destroyed")
	}
	if err := s.remote.MakeSubsurface(parent.remote); err != nil {
		return err
	}
	s.role = RoleSubsurface
	s.active = RoleSubsurface
	s.parent = parent.handle
	return nil
}

// clearRole removes the surface's role objects and resets the
// negotiation buffers; a configure tied to the old role object means
// nothing to its successor. The sticky role is kept. The caller must
// hold the surface lock.
func (s *Surface) clearRole() {
	s.remote.ClearRole()
	s.active = RoleNone
	s.parent = 0
	s.requested = Configure{}
	s.processing = Configure{}
	s.processed = false
	s.current = Configure{}
}

// destroy releases the surface's protocol objects and the attached
// presentation client. The caller must not hold the surface lock.
func (s *Surface) destroy() {
	s.mu.Lock()
	if s.client != nil {
		s.client.Destroy()
		s.client = nil
	}
	if s.remote != nil {
		s.remote.Destroy()
		s.remote = nil
	}
	s.active = RoleNone
	s.parent = 0
	s.mu.Unlock()
}

// takeClient detaches and returns the attached presentation client so it
// can survive a role change. The caller must hold the surface lock.
func (s *Surface) takeClient() RemoteClient {
	client := s.client
	s.client = nil
	if client != nil {
		client.Detach()
	}
	return client
}

// attachClient re-anchors a presentation client under this surface,
// destroying it when that is no longer possible. The caller must hold
// the surface lock.
func (s *Surface) attachClient(client RemoteClient) error {
	if s.remote == nil {
		client.Destroy()
		return errors.New("waylanddriver: surface already destroyed")
	}
	if err := client.AttachTo(s.remote); err != nil {
		client.Destroy()
		return err
	}
	s.client = client
	return nil
}

// AcquireClient returns the surface's accelerated presentation client,
// creating one on first use. The caller must hold the surface lock.
func (s *Surface) AcquireClient() (RemoteClient, error) {
	if s.client != nil {
		return s.client, nil
	}
	if s.remote == nil {
		return nil, errors.New("waylanddriver: surface already destroyed")
	}
	client, err := s.remote.NewClient()
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// setTitle pushes title to the toplevel, truncating over-long text on a
// rune boundary. The caller must hold the surface lock.
func (s *Surface) setTitle(title string) {
	if len(title) > maxTitleLen {
		cut := maxTitleLen
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	s.remote.SetTitle(title)
}

// coordsFromWindow converts from window coordinates to surface
// coordinates, rounding half away from zero.
func (s *Surface) coordsFromWindow(p image.Point) image.Point {
	return image.Point{
		X: int(math.Round(float64(p.X) / s.window.scale)),
		Y: int(math.Round(float64(p.Y) / s.window.scale)),
	}
}

// coordsToWindow converts from surface coordinates to window
// coordinates, rounding half away from zero.
func (s *Surface) coordsToWindow(p image.Point) image.Point {
	return image.Point{
		X: int(math.Round(float64(p.X) * s.window.scale)),
		Y: int(math.Round(float64(p.Y) * s.window.scale)),
	}
}

// compatible reports whether a window of the given size in surface
// coordinates honors c under the window's state bits. Maximized rejects
// undersized windows while fullscreen rejects oversized ones; the
// asymmetry is deliberate policy, matching what compositors tolerate for
// each state.
func (c Configure) compatible(size image.Point, state ConfigState) bool {
	const mask = StateMaximized | StateFullscreen
	if state&mask != c.State&mask {
		return false
	}
	if c.State&StateMaximized != 0 && (size.X < c.Size.X || size.Y < c.Size.Y) {
		return false
	}
	if c.State&StateFullscreen != 0 && (size.X > c.Size.X || size.Y > c.Size.Y) {
		return false
	}
	return true
}

// Reconfigure folds any processed compositor configuration into the
// surface's current state, acknowledging its serial, and reports whether
// content at the window's present geometry may be committed. Committing
// is forbidden until some configuration has been acknowledged and
// whenever the standing one is incompatible with the window's size.
//
// The caller must hold the surface lock.
func (s *Surface) Reconfigure() bool {
	if s.remote == nil {
		return false
	}
	switch s.active {
	case RoleSubsurface:
		s.remote.SetPosition(s.coordsFromWindow(s.window.relative))
		return true
	case RoleNone:
		return false
	}

	size := s.coordsFromWindow(s.window.rect.Size())
	switch {
	case s.processing.Serial != 0 && s.processed &&
		s.processing.compatible(size, s.window.state):
		s.current = s.processing
		s.processing = Configure{}
		s.processed = false
		s.remote.AckConfigure(s.current.Serial)
	case s.current.Serial == 0 && s.requested.Serial != 0 &&
		s.requested.compatible(size, s.window.state):
		// Initial configure. Adopt the requested configuration directly
		// so windows that never pass through the update pipeline still
		// get to draw.
		s.current = s.requested
		s.requested = Configure{}
		s.remote.AckConfigure(s.current.Serial)
	case s.current.Serial == 0 || !s.current.compatible(size, s.window.state):
		return false
	}

	s.remote.SetWindowGeometry(image.Rectangle{Max: size})
	return true
}
