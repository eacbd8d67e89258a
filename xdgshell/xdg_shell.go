// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xdgshell implements the client side of the xdg_shell
// window management protocol: xdg_wm_base, xdg_surface and
// xdg_toplevel. Positioners and popups are not implemented.
//
// The proxies plug into a github.com/neurlang/wayland connection.
// Construct them with the display's context and bind the wm_base
// through the registry:
//
//	base := xdgshell.NewWmBase(display.Context())
//	err := registry.Bind(name, "xdg_wm_base", version, base)
//
// Events sent by versions newer than the requests implemented here
// (configure_bounds, wm_capabilities) are parsed and dropped.
package xdgshell

import (
	"github.com/neurlang/wayland/wl"
)

// Aliases into the core protocol package, so that the protocol file
// reads the way generated bindings do.
type BaseProxy = wl.BaseProxy
type Event = wl.Event
type Context = wl.Context
type Proxy = wl.Proxy
type WlSurface = wl.Surface
type WlSeat = wl.Seat
type WlOutput = wl.Output
