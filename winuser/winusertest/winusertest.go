// Copyright 2026 The Affinity Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package winusertest provides an in-memory winuser.Manager for driver
// tests and demos.
//
// The Manager keeps a window tree, styles, titles and a top-level
// z-order, and models a single monitor. Drivers are wired in through
// the OnPosChanging and OnPosChanged hooks, which SetWindowPos invokes
// the way the real window manager invokes a display driver: after
// computing the new rectangles, with no manager lock held, so the
// driver is free to call back into the Manager.
//
// All rectangles are virtual screen coordinates.
package winusertest

import (
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/Packset/affinity-wine/internal/pump"
	"github.com/Packset/affinity-wine/winuser"
)

// MsgClose is the message PostCloseRequest queues, carrying the WM_CLOSE
// value.
const MsgClose uint32 = 0x0010

// Message is one queued window message.
type Message struct {
	Window winuser.Handle
	Msg    uint32
}

// PosChangingFunc mirrors a driver's WindowPosChanging entry point.
type PosChangingFunc func(h winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle) bool

// PosChangedFunc mirrors a driver's WindowPosChanged entry point, minus
// the presentation target, which the test or demo supplies itself.
type PosChangedFunc func(h, after winuser.Handle, flags winuser.SetPosFlags, windowRect, clientRect, visibleRect image.Rectangle)

type window struct {
	handle  winuser.Handle
	parent  winuser.Handle
	owner   winuser.Handle
	style   winuser.Style
	exStyle winuser.ExStyle
	text    string
	rect    image.Rectangle
	client  image.Rectangle
	dpi     int
}

// Manager is an in-memory winuser.Manager.
type Manager struct {
	queue pump.Pump[Message]

	mu         sync.Mutex
	next       uintptr
	desktop    winuser.Handle
	windows    map[winuser.Handle]*window
	zorder     []winuser.Handle
	active     winuser.Handle
	foreground winuser.Handle
	screen     image.Rectangle
	workArea   image.Rectangle
	calls      []string

	posChanging PosChangingFunc
	posChanged  PosChangedFunc
}

// New returns a Manager with an empty tree and a single 1920x1080
// monitor at 96 DPI, with a 40-pixel bar excluded from the work area.
func New() *Manager {
	m := &Manager{
		queue:    pump.Make[Message](),
		next:     0x10000,
		windows:  make(map[winuser.Handle]*window),
		screen:   image.Rect(0, 0, 1920, 1080),
		workArea: image.Rect(0, 0, 1920, 1040),
	}
	m.desktop = m.alloc()
	m.windows[m.desktop] = &window{
		handle: m.desktop,
		style:  winuser.StyleVisible,
		text:   "desktop",
		rect:   m.screen,
		client: m.screen,
		dpi:    96,
	}
	return m
}

func (m *Manager) alloc() winuser.Handle {
	h := winuser.Handle(m.next)
	m.next += 0x10
	return h
}

// OnPosChanging installs the driver's WindowPosChanging hook. Install
// hooks before the first SetWindowPos call.
func (m *Manager) OnPosChanging(f PosChangingFunc) { m.posChanging = f }

// OnPosChanged installs the driver's WindowPosChanged hook.
func (m *Manager) OnPosChanged(f PosChangedFunc) { m.posChanged = f }

// CreateWindow adds a window to the tree and returns its handle. A zero
// parent means the desktop. New top-level windows enter the z-order on
// top. Creation alone does not invoke the driver hooks; drive the window
// through SetWindowPos for that, as the real window manager does.
func (m *Manager) CreateWindow(parent winuser.Handle, style winuser.Style, exStyle winuser.ExStyle, text string, rect image.Rectangle) winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if parent == 0 {
		parent = m.desktop
	}
	h := m.alloc()
	m.windows[h] = &window{
		handle:  h,
		parent:  parent,
		style:   style,
		exStyle: exStyle,
		text:    text,
		rect:    rect,
		client:  rect,
		dpi:     96,
	}
	if parent == m.desktop {
		m.zorder = append([]winuser.Handle{h}, m.zorder...)
	}
	return h
}

// DestroyWindow removes a window and its descendants from the tree. The
// driver's own DestroyWindow entry point is the caller's business, as it
// is for the real window manager.
func (m *Manager) DestroyWindow(h winuser.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var drop func(winuser.Handle)
	drop = func(h winuser.Handle) {
		for _, w := range m.windows {
			if w.parent == h {
				drop(w.handle)
			}
		}
		delete(m.windows, h)
		for i, z := range m.zorder {
			if z == h {
				m.zorder = append(m.zorder[:i], m.zorder[i+1:]...)
				break
			}
		}
		if m.active == h {
			m.active = 0
		}
		if m.foreground == h {
			m.foreground = 0
		}
	}
	drop(h)
}

// SetOwner sets the owner of a top-level window.
func (m *Manager) SetOwner(h, owner winuser.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		w.owner = owner
	}
}

// SetWindowParent reparents h. Windows moving onto the desktop enter the
// z-order on top; windows leaving it drop out. Drivers learn of reparents
// through the next positioning pass, as they do for the real manager.
func (m *Manager) SetWindowParent(h, parent winuser.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.windows[h]
	if w == nil {
		return
	}
	wasTop := w.parent == m.desktop
	w.parent = parent
	isTop := parent == m.desktop
	switch {
	case isTop && !wasTop:
		m.zorder = append([]winuser.Handle{h}, m.zorder...)
	case wasTop && !isTop:
		for i, z := range m.zorder {
			if z == h {
				m.zorder = append(m.zorder[:i], m.zorder[i+1:]...)
				break
			}
		}
	}
}

// SetWindowText renames a window. Drivers learn of renames through their
// own SetWindowText entry point; invoking it is the caller's business.
func (m *Manager) SetWindowText(h winuser.Handle, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		w.text = text
	}
}

// SetActive marks h as the active window without raising it.
func (m *Manager) SetActive(h winuser.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = h
}

// SetDPI changes the scaling of a window.
func (m *Manager) SetDPI(h winuser.Handle, dpi int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		w.dpi = dpi
	}
}

// SetClientRect overrides the client rectangle, which CreateWindow
// defaults to the window rectangle.
func (m *Manager) SetClientRect(h winuser.Handle, r image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		w.client = r
	}
}

// WindowRect returns the window rectangle in screen coordinates.
func (m *Manager) WindowRect(h winuser.Handle) image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.rect
	}
	return image.Rectangle{}
}

// Messages returns the queue fed by Post and PostCloseRequest.
func (m *Manager) Messages() <-chan Message {
	return m.queue.Events()
}

// Calls returns the trace of notification methods invoked so far.
func (m *Manager) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Manager) trace(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

// TakeMessage receives the next queued message, failing tb if none
// arrives within a second.
func TakeMessage(tb testing.TB, m *Manager) Message {
	tb.Helper()
	select {
	case msg := <-m.Messages():
		return msg
	case <-time.After(time.Second):
		tb.Fatal("no message queued")
		return Message{}
	}
}

// DesktopWindow implements winuser.Manager.
func (m *Manager) DesktopWindow() winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desktop
}

// Parent implements winuser.Manager.
func (m *Manager) Parent(h winuser.Handle) winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.parent
	}
	return 0
}

// Owner implements winuser.Manager.
func (m *Manager) Owner(h winuser.Handle) winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.owner
	}
	return 0
}

// IsChild implements winuser.Manager.
func (m *Manager) IsChild(parent, h winuser.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cur := h; ; {
		w := m.windows[cur]
		if w == nil || w.parent == 0 || w.parent == m.desktop {
			return false
		}
		if w.parent == parent {
			return true
		}
		cur = w.parent
	}
}

// WindowList implements winuser.Manager.
func (m *Manager) WindowList() []winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]winuser.Handle(nil), m.zorder...)
}

// Style implements winuser.Manager.
func (m *Manager) Style(h winuser.Handle) winuser.Style {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.style
	}
	return 0
}

// ExStyle implements winuser.Manager.
func (m *Manager) ExStyle(h winuser.Handle) winuser.ExStyle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.exStyle
	}
	return 0
}

// SetStyle implements winuser.Manager.
func (m *Manager) SetStyle(h winuser.Handle, s winuser.Style) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		w.style = s
	}
}

// IsVisible implements winuser.Manager.
func (m *Manager) IsVisible(h winuser.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cur := h; cur != 0; {
		w := m.windows[cur]
		if w == nil || w.style&winuser.StyleVisible == 0 {
			return false
		}
		cur = w.parent
	}
	return h != 0
}

// WindowText implements winuser.Manager.
func (m *Manager) WindowText(h winuser.Handle) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.text
	}
	return ""
}

// ActiveWindow implements winuser.Manager.
func (m *Manager) ActiveWindow() winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ForegroundWindow implements winuser.Manager.
func (m *Manager) ForegroundWindow() winuser.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

// SetForegroundWindow implements winuser.Manager. The window is raised,
// activated and focused.
func (m *Manager) SetForegroundWindow(h winuser.Handle) {
	m.mu.Lock()
	if m.windows[h] == nil {
		m.mu.Unlock()
		return
	}
	m.active = h
	m.foreground = h
	m.raise(h)
	m.calls = append(m.calls, fmt.Sprintf("set_foreground %v", h))
	m.mu.Unlock()
}

func (m *Manager) raise(h winuser.Handle) {
	for i, z := range m.zorder {
		if z == h {
			m.zorder = append(m.zorder[:i], m.zorder[i+1:]...)
			m.zorder = append([]winuser.Handle{h}, m.zorder...)
			return
		}
	}
}

// DPIForWindow implements winuser.Manager.
func (m *Manager) DPIForWindow(h winuser.Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[h]; w != nil {
		return w.dpi
	}
	return 96
}

// MonitorWorkArea implements winuser.Manager.
func (m *Manager) MonitorWorkArea(h winuser.Handle) image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workArea
}

// IsRectFullScreen implements winuser.Manager.
func (m *Manager) IsRectFullScreen(r image.Rectangle, dpi int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := image.Rect(
		m.screen.Min.X*dpi/96, m.screen.Min.Y*dpi/96,
		m.screen.Max.X*dpi/96, m.screen.Max.Y*dpi/96,
	)
	return r.Min.X <= s.Min.X && r.Min.Y <= s.Min.Y &&
		r.Max.X >= s.Max.X && r.Max.Y >= s.Max.Y
}

// SetWindowPos implements winuser.Manager. The new rectangles are
// computed under the manager lock; the driver hooks then run with the
// lock released and may re-enter the Manager.
func (m *Manager) SetWindowPos(h, after winuser.Handle, r image.Rectangle, flags winuser.SetPosFlags) {
	m.mu.Lock()
	w := m.windows[h]
	if w == nil {
		m.mu.Unlock()
		return
	}

	pos := w.rect.Min
	if flags&winuser.SetPosNoMove == 0 {
		pos = r.Min
	}
	size := w.rect.Size()
	if flags&winuser.SetPosNoSize == 0 {
		size = r.Size()
	}
	newRect := image.Rectangle{Min: pos, Max: pos.Add(size)}

	dMin := newRect.Min.Sub(w.rect.Min)
	dSize := newRect.Size().Sub(w.rect.Size())
	newClient := w.client.Add(dMin)
	newClient.Max = newClient.Max.Add(dSize)

	style := w.style
	if flags&winuser.SetPosShowWindow != 0 {
		style |= winuser.StyleVisible
	}
	if flags&winuser.SetPosHideWindow != 0 {
		style &^= winuser.StyleVisible
	}

	posChanging, posChanged := m.posChanging, m.posChanged
	m.mu.Unlock()

	// The driver hook always runs; SetPosNoSendChanging suppresses only
	// the application message, which this manager does not model.
	if posChanging != nil {
		posChanging(h, flags, newRect, newClient, newRect)
	}

	m.mu.Lock()
	if w = m.windows[h]; w == nil {
		m.mu.Unlock()
		return
	}
	w.rect = newRect
	w.client = newClient
	w.style = style
	if flags&winuser.SetPosNoZOrder == 0 && w.parent == m.desktop {
		m.raise(h)
	}
	m.mu.Unlock()

	if posChanged != nil {
		posChanged(h, after, flags, newRect, newClient, newRect)
	}
}

// EnterSizeMove implements winuser.Manager.
func (m *Manager) EnterSizeMove(h winuser.Handle) {
	m.trace("enter_size_move %v", h)
}

// ExitSizeMove implements winuser.Manager.
func (m *Manager) ExitSizeMove(h winuser.Handle) {
	m.trace("exit_size_move %v", h)
}

// Post implements winuser.Manager. It never blocks, whatever the state
// of the receiving side.
func (m *Manager) Post(h winuser.Handle, msg uint32) {
	m.queue.Send(Message{Window: h, Msg: msg})
}

// PostCloseRequest implements winuser.Manager.
func (m *Manager) PostCloseRequest(h winuser.Handle) {
	m.queue.Send(Message{Window: h, Msg: MsgClose})
}

// NotifyDisplayChange implements winuser.Manager.
func (m *Manager) NotifyDisplayChange() {
	m.trace("notify_display_change")
}

// ReapplyCursorClip implements winuser.Manager.
func (m *Manager) ReapplyCursorClip() {
	m.trace("reapply_cursor_clip")
}
