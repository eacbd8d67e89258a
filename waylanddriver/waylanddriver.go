// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package waylanddriver maps emulated Win32 windows onto Wayland
// surfaces.
//
// The driver keeps one record per window that has passed through the
// positioning pipeline, decides per window whether it needs a protocol
// surface and in which role, and runs the serial-tagged configure
// negotiation between the compositor and the window manager. Geometry and
// state flow in both directions: window manager changes are pushed to the
// compositor as role and state requests, compositor configure events are
// buffered and folded back into window style and geometry on the window's
// own event thread.
//
// Two threads meet here: the one delivering window manager events
// (positioning, destruction, text, system commands) and the one
// dispatching compositor events. The registry lock orders them; each
// surface additionally carries its own lock so configuration state can be
// inspected without touching the registry. Code holding a surface lock
// must never reach back into the registry.
package waylanddriver

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Packset/affinity-wine/winuser"
)

// Driver-internal messages, posted to a window through the window manager
// and handled by WindowMessage on the window's event thread.
const (
	// MsgDisplayChanged asks the window manager to re-read the display
	// configuration.
	MsgDisplayChanged uint32 = 0x80001000 + iota

	// MsgConfigure applies a buffered compositor configuration to the
	// window it was posted to.
	MsgConfigure

	// MsgForeground asserts the input focus for the window it was
	// posted to.
	MsgForeground
)

// Options configure a Driver. The zero value is usable.
type Options struct {
	// Logger receives driver traces. Nil means slog.Default().
	Logger *slog.Logger

	// ReleaseDrawable, if non-nil, is called after a window's record
	// has been destroyed, so accelerated drawables bound to the window
	// can be torn down by the rendering layer.
	ReleaseDrawable func(winuser.Handle)
}

// Driver bridges one window manager to one compositor connection.
//
// All exported methods are safe for concurrent use. The window manager
// side calls the positioning and message entry points; the compositor
// side calls the SurfaceEvents methods from its dispatch thread.
type Driver struct {
	wm   winuser.Manager
	comp Compositor
	log  *slog.Logger

	releaseDrawable func(winuser.Handle)

	mu      sync.Mutex // guards windows and all windowData fields
	windows map[winuser.Handle]*windowData
}

// New returns a Driver bridging wm to comp.
func New(wm winuser.Manager, comp Compositor, opts *Options) (*Driver, error) {
	if wm == nil {
		return nil, errors.New("waylanddriver: nil window manager")
	}
	if comp == nil {
		return nil, errors.New("waylanddriver: nil compositor")
	}
	d := &Driver{
		wm:      wm,
		comp:    comp,
		log:     slog.Default(),
		windows: make(map[winuser.Handle]*windowData),
	}
	if opts != nil {
		if opts.Logger != nil {
			d.log = opts.Logger
		}
		d.releaseDrawable = opts.ReleaseDrawable
	}
	return d, nil
}
