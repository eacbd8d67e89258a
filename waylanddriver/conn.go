// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"

	"github.com/Packset/affinity-wine/winuser"
	"github.com/Packset/affinity-wine/xdgshell"
)

// Protocol enum values read off the wire. Kept local so the dispatch
// code does not depend on enum names the core bindings may not export.
const (
	seatCapabilityPointer     = 1 << 0
	pointerButtonStatePressed = 1
)

// Conn is a live Wayland display connection implementing Compositor.
//
// The connection is established once and lives for the process, like the
// window manager it serves. Protocol requests are written to the socket
// as they are issued; events are read and dispatched on a dedicated
// goroutine started by Connect.
type Conn struct {
	log     *slog.Logger
	appID   string
	display *wl.Display

	// The required globals are bound before Connect returns and never
	// replaced afterwards.
	registry      *wl.Registry
	compositor    *wl.Compositor
	subcompositor *wl.Subcompositor
	shm           *wl.Shm
	wmBase        *xdgshell.WmBase

	// mu guards the fields below.
	mu           sync.Mutex
	seat         *wl.Seat
	pointer      *wl.Pointer
	focusSurface wl.ProxyId
	buttonSerial uint32

	// surfaceOwner maps each of our wl_surface objects back to the
	// window it belongs to, for routing input focus.
	surfaceOwner map[wl.ProxyId]winuser.Handle
}

// Connect establishes a connection to the Wayland display named by the
// environment and binds the globals the driver depends on. A nil logger
// means slog.Default().
func Connect(logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	display, err := wl.Connect("")
	if err != nil {
		return nil, fmt.Errorf("waylanddriver: connect display: %w", err)
	}
	c := &Conn{
		log:          logger,
		appID:        filepath.Base(os.Args[0]),
		display:      display,
		surfaceOwner: make(map[wl.ProxyId]winuser.Handle),
	}
	display.AddErrorHandler(c)

	registry, err := display.GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("waylanddriver: get registry: %w", err)
	}
	c.registry = registry
	registry.AddGlobalHandler(c)

	// The first roundtrip delivers the globals, the second the initial
	// events of whatever the first one bound, such as seat capabilities.
	if err := wlclient.DisplayRoundtrip(display); err != nil {
		return nil, fmt.Errorf("waylanddriver: initial roundtrip: %w", err)
	}
	if err := wlclient.DisplayRoundtrip(display); err != nil {
		return nil, fmt.Errorf("waylanddriver: initial roundtrip: %w", err)
	}

	switch {
	case c.compositor == nil:
		return nil, fmt.Errorf("waylanddriver: compositor does not advertise wl_compositor")
	case c.subcompositor == nil:
		return nil, fmt.Errorf("waylanddriver: compositor does not advertise wl_subcompositor")
	case c.shm == nil:
		return nil, fmt.Errorf("waylanddriver: compositor does not advertise wl_shm")
	case c.wmBase == nil:
		return nil, fmt.Errorf("waylanddriver: compositor does not advertise xdg_wm_base")
	}
	c.wmBase.AddPingHandler(c)

	go c.dispatch()
	return c, nil
}

// dispatch reads and dispatches compositor events until the connection
// breaks.
func (c *Conn) dispatch() {
	for {
		if err := c.display.Context().Run(); err != nil {
			c.log.Error("wayland connection lost", "error", err)
			return
		}
	}
}

// HandleDisplayError implements wl.DisplayErrorHandler.
func (c *Conn) HandleDisplayError(e wl.DisplayErrorEvent) {
	c.log.Error("wayland protocol error", "code", e.Code, "message", e.Message)
}

// HandleRegistryGlobal implements wl.RegistryGlobalHandler, binding the
// globals the driver uses as the registry announces them.
func (c *Conn) HandleRegistryGlobal(e wl.RegistryGlobalEvent) {
	switch e.Interface {
	case "wl_compositor":
		compositor := wl.NewCompositor(c.display.Context())
		if err := c.registry.Bind(e.Name, e.Interface, e.Version, compositor); err != nil {
			c.log.Error("bind wl_compositor", "error", err)
			return
		}
		c.compositor = compositor
	case "wl_subcompositor":
		subcompositor := wl.NewSubcompositor(c.display.Context())
		if err := c.registry.Bind(e.Name, e.Interface, e.Version, subcompositor); err != nil {
			c.log.Error("bind wl_subcompositor", "error", err)
			return
		}
		c.subcompositor = subcompositor
	case "wl_shm":
		shm := wl.NewShm(c.display.Context())
		if err := c.registry.Bind(e.Name, e.Interface, e.Version, shm); err != nil {
			c.log.Error("bind wl_shm", "error", err)
			return
		}
		c.shm = shm
	case "xdg_wm_base":
		wmBase := xdgshell.NewWmBase(c.display.Context())
		if err := c.registry.Bind(e.Name, e.Interface, e.Version, wmBase); err != nil {
			c.log.Error("bind xdg_wm_base", "error", err)
			return
		}
		c.wmBase = wmBase
	case "wl_seat":
		if c.currentSeat() != nil {
			return
		}
		seat := wl.NewSeat(c.display.Context())
		if err := c.registry.Bind(e.Name, e.Interface, e.Version, seat); err != nil {
			c.log.Error("bind wl_seat", "error", err)
			return
		}
		c.mu.Lock()
		c.seat = seat
		c.mu.Unlock()
		seat.AddCapabilitiesHandler(c)
	}
}

// currentSeat returns the bound seat, if any. Seats may appear after the
// connection is up, so reads go through the lock.
func (c *Conn) currentSeat() *wl.Seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seat
}

// HandleWmBasePing implements xdgshell.WmBasePingHandler. Unanswered
// pings get the client deemed unresponsive and killed.
func (c *Conn) HandleWmBasePing(e xdgshell.WmBasePingEvent) {
	if err := c.wmBase.Pong(e.Serial); err != nil {
		c.log.Error("wm_base pong", "error", err)
	}
}

// HandleSeatCapabilities implements wl.SeatCapabilitiesHandler, acquiring
// and releasing the pointer as the seat gains and loses one.
func (c *Conn) HandleSeatCapabilities(e wl.SeatCapabilitiesEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hasPointer := e.Capabilities&seatCapabilityPointer != 0
	if hasPointer && c.pointer == nil {
		pointer, err := c.seat.GetPointer()
		if err != nil {
			c.log.Error("seat get_pointer", "error", err)
			return
		}
		pointer.AddEnterHandler(c)
		pointer.AddLeaveHandler(c)
		pointer.AddButtonHandler(c)
		c.pointer = pointer
	} else if !hasPointer && c.pointer != nil {
		if err := c.pointer.Release(); err != nil {
			c.log.Error("pointer release", "error", err)
		}
		c.pointer = nil
		c.focusSurface = 0
		c.buttonSerial = 0
	}
}

// HandlePointerEnter implements wl.PointerEnterHandler.
func (c *Conn) HandlePointerEnter(e wl.PointerEnterEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focusSurface = 0
	if e.Surface != nil {
		c.focusSurface = e.Surface.Id()
	}
}

// HandlePointerLeave implements wl.PointerLeaveHandler.
func (c *Conn) HandlePointerLeave(e wl.PointerLeaveEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focusSurface = 0
}

// HandlePointerButton implements wl.PointerButtonHandler. Only a held
// button carries a serial valid for interactive move and resize grabs.
func (c *Conn) HandlePointerButton(e wl.PointerButtonEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.State == pointerButtonStatePressed {
		c.buttonSerial = e.Serial
	} else {
		c.buttonSerial = 0
	}
}

// NewSurface implements Compositor.
func (c *Conn) NewSurface(h winuser.Handle, events SurfaceEvents) (RemoteSurface, error) {
	surface, err := c.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("waylanddriver: create surface: %w", err)
	}
	c.mu.Lock()
	c.surfaceOwner[surface.Id()] = h
	c.mu.Unlock()
	return &remoteSurface{
		conn:    c,
		handle:  h,
		events:  events,
		surface: surface,
	}, nil
}

// GrabSerial implements Compositor.
func (c *Conn) GrabSerial(h winuser.Handle) (serial uint32, focused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buttonSerial, h != 0 && c.surfaceOwner[c.focusSurface] == h
}

// Flush implements Compositor. Requests are written to the socket as
// they are issued, so there is nothing left to push here; the method
// exists so buffering implementations can slot in.
func (c *Conn) Flush() {}

// claimSurface records h as the owner of a wl_surface, so pointer focus
// on it resolves to the window.
func (c *Conn) claimSurface(s *wl.Surface, h winuser.Handle) {
	c.mu.Lock()
	c.surfaceOwner[s.Id()] = h
	c.mu.Unlock()
}

// disownSurface removes a wl_surface from the owner table. A stale
// focusSurface simply stops resolving to a window.
func (c *Conn) disownSurface(s *wl.Surface) {
	c.mu.Lock()
	delete(c.surfaceOwner, s.Id())
	c.mu.Unlock()
}
