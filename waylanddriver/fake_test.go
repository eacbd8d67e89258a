// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package waylanddriver

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Packset/affinity-wine/winuser"
	"github.com/Packset/affinity-wine/winuser/winusertest"
)

// fakeCompositor records every protocol request the driver issues, in
// order, as one trace line per request. Surfaces are named s0, s1, ... in
// creation order and clients c0, c1, ... so traces stay stable across
// handle values.
type fakeCompositor struct {
	mu       sync.Mutex
	trace    []string
	surfaces map[winuser.Handle][]*fakeRemote
	nsurface int
	nclient  int
	flushes  int

	// serial and focus feed GrabSerial.
	serial  uint32
	focused winuser.Handle

	// failSurface makes NewSurface fail, exercising the degraded path.
	failSurface bool
}

func newFakeCompositor() *fakeCompositor {
	return &fakeCompositor{surfaces: make(map[winuser.Handle][]*fakeRemote)}
}

func (c *fakeCompositor) record(format string, args ...any) {
	c.mu.Lock()
	c.trace = append(c.trace, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

// Trace returns all trace lines recorded so far.
func (c *fakeCompositor) Trace() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.trace...)
}

// TraceFrom returns the trace lines recorded after the first n.
func (c *fakeCompositor) TraceFrom(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.trace[n:]...)
}

func (c *fakeCompositor) NewSurface(h winuser.Handle, events SurfaceEvents) (RemoteSurface, error) {
	c.mu.Lock()
	if c.failSurface {
		c.mu.Unlock()
		return nil, errors.New("fake compositor out of surfaces")
	}
	r := &fakeRemote{comp: c, name: fmt.Sprintf("s%d", c.nsurface), events: events}
	c.nsurface++
	c.surfaces[h] = append(c.surfaces[h], r)
	c.trace = append(c.trace, r.name+" created")
	c.mu.Unlock()
	return r, nil
}

func (c *fakeCompositor) GrabSerial(h winuser.Handle) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serial, c.focused == h
}

func (c *fakeCompositor) Flush() {
	c.mu.Lock()
	c.flushes++
	c.mu.Unlock()
}

// lastRemote returns the newest surface created for h, or nil.
func (c *fakeCompositor) lastRemote(h winuser.Handle) *fakeRemote {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.surfaces[h]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (c *fakeCompositor) surfaceCount(h winuser.Handle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.surfaces[h])
}

// fakeRemote is one recorded protocol surface.
type fakeRemote struct {
	comp   *fakeCompositor
	name   string
	events SurfaceEvents

	mu        sync.Mutex
	role      string
	parent    *fakeRemote
	title     string
	destroyed bool
	geometry  image.Rectangle
	position  image.Point
	acked     []uint32
}

func (r *fakeRemote) MakeToplevel() error {
	r.mu.Lock()
	r.role = "toplevel"
	r.mu.Unlock()
	r.comp.record("%s make_toplevel", r.name)
	return nil
}

func (r *fakeRemote) MakeSubsurface(parent RemoteSurface) error {
	p := parent.(*fakeRemote)
	r.mu.Lock()
	r.role = "subsurface"
	r.parent = p
	r.mu.Unlock()
	r.comp.record("%s make_subsurface %s", r.name, p.name)
	return nil
}

func (r *fakeRemote) ClearRole() {
	r.mu.Lock()
	r.role = ""
	r.parent = nil
	r.mu.Unlock()
	r.comp.record("%s clear_role", r.name)
}

func (r *fakeRemote) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
	r.comp.record("%s destroy", r.name)
}

func (r *fakeRemote) SetTitle(title string) {
	r.mu.Lock()
	r.title = title
	r.mu.Unlock()
	r.comp.record("%s set_title %q", r.name, title)
}

func (r *fakeRemote) SetMaximized()    { r.comp.record("%s set_maximized", r.name) }
func (r *fakeRemote) UnsetMaximized()  { r.comp.record("%s unset_maximized", r.name) }
func (r *fakeRemote) SetFullscreen()   { r.comp.record("%s set_fullscreen", r.name) }
func (r *fakeRemote) UnsetFullscreen() { r.comp.record("%s unset_fullscreen", r.name) }

func (r *fakeRemote) Move(serial uint32) {
	r.comp.record("%s move %d", r.name, serial)
}

func (r *fakeRemote) Resize(serial uint32, edge ResizeEdge) {
	r.comp.record("%s resize %d %d", r.name, serial, uint32(edge))
}

func (r *fakeRemote) AckConfigure(serial uint32) {
	r.mu.Lock()
	r.acked = append(r.acked, serial)
	r.mu.Unlock()
	r.comp.record("%s ack_configure %d", r.name, serial)
}

func (r *fakeRemote) SetWindowGeometry(rect image.Rectangle) {
	r.mu.Lock()
	r.geometry = rect
	r.mu.Unlock()
	r.comp.record("%s set_window_geometry %v", r.name, rect)
}

func (r *fakeRemote) SetPosition(p image.Point) {
	r.mu.Lock()
	r.position = p
	r.mu.Unlock()
	r.comp.record("%s set_position %v", r.name, p)
}

func (r *fakeRemote) NewClient() (RemoteClient, error) {
	r.comp.mu.Lock()
	cl := &fakeClient{comp: r.comp, name: fmt.Sprintf("c%d", r.comp.nclient)}
	r.comp.nclient++
	r.comp.trace = append(r.comp.trace, cl.name+" created under "+r.name)
	r.comp.mu.Unlock()
	return cl, nil
}

func (r *fakeRemote) calls() []string {
	prefix := r.name + " "
	var out []string
	for _, line := range r.comp.Trace() {
		if len(line) > len(prefix) && line[:len(prefix)] == prefix {
			out = append(out, line[len(prefix):])
		}
	}
	return out
}

// fakeClient is one recorded accelerated presentation client.
type fakeClient struct {
	comp *fakeCompositor
	name string

	mu        sync.Mutex
	parent    *fakeRemote
	destroyed bool
}

func (c *fakeClient) AttachTo(parent RemoteSurface) error {
	p := parent.(*fakeRemote)
	c.mu.Lock()
	c.parent = p
	c.mu.Unlock()
	c.comp.record("%s attach %s", c.name, p.name)
	return nil
}

func (c *fakeClient) Detach() {
	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()
	c.comp.record("%s detach", c.name)
}

func (c *fakeClient) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.mu.Unlock()
	c.comp.record("%s destroy", c.name)
}

// fakeTarget records what the driver binds a presentation target to.
type fakeTarget struct {
	mu      sync.Mutex
	outputs []*Surface
	visible []image.Rectangle
	flushes int
}

func (t *fakeTarget) SetOutput(s *Surface, visible image.Rectangle) {
	t.mu.Lock()
	t.outputs = append(t.outputs, s)
	t.visible = append(t.visible, visible)
	t.mu.Unlock()
}

func (t *fakeTarget) Flush() {
	t.mu.Lock()
	t.flushes++
	t.mu.Unlock()
}

func (t *fakeTarget) lastOutput() *Surface {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.outputs) == 0 {
		return nil
	}
	return t.outputs[len(t.outputs)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness wires a Manager, a fake compositor and a Driver together the
// way the demo wires the real pieces, binding per-window targets from
// the targets map on every position pass.
type harness struct {
	wm      *winusertest.Manager
	comp    *fakeCompositor
	drv     *Driver
	targets map[winuser.Handle]PresentTarget
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		wm:      winusertest.New(),
		comp:    newFakeCompositor(),
		targets: make(map[winuser.Handle]PresentTarget),
	}
	drv, err := New(h.wm, h.comp, &Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.drv = drv
	h.wm.OnPosChanging(func(hw winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) bool {
		return drv.WindowPosChanging(hw, flags, windowRect, clientRect, visibleRect)
	})
	h.wm.OnPosChanged(func(hw, after winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) {
		drv.WindowPosChanged(hw, after, flags, windowRect, clientRect, visibleRect, h.targets[hw])
	})
	return h
}

// show runs a window through the positioning pipeline with the show flag.
func (h *harness) show(win winuser.Handle, rect image.Rectangle) {
	h.wm.SetWindowPos(win, 0, rect, winuser.SetPosShowWindow|winuser.SetPosFrameChanged|winuser.SetPosNoActivate)
}

// managedStyle is the style of an ordinary decorated application window.
const managedStyle = winuser.StyleVisible | winuser.StyleCaption |
	winuser.StyleSysMenu | winuser.StyleThickFrame

// newToplevel creates and shows a decorated top-level window.
func (h *harness) newToplevel(title string, rect image.Rectangle) winuser.Handle {
	win := h.wm.CreateWindow(0, managedStyle, 0, title, rect)
	h.show(win, rect)
	return win
}

// newChild creates and shows a plain child of parent.
func (h *harness) newChild(parent winuser.Handle, rect image.Rectangle) winuser.Handle {
	win := h.wm.CreateWindow(parent, winuser.StyleVisible|winuser.StyleChild, 0, "", rect)
	h.show(win, rect)
	return win
}
